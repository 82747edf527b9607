// Command lsmkv-demo is a small illustration of opening a store,
// writing a few keys, and scanning them back. The benchmark driver and
// public-facing API façade that would normally own process entry are
// out of scope for this repository.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kndrad/lsmkv"
)

func main() {
	dir, err := os.MkdirTemp("", "lsmkv-demo-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	st, err := lsmkv.Open(dir)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	for i := uint64(0); i < 10; i++ {
		if err := st.Put(i, []byte(fmt.Sprintf("value-%d", i))); err != nil {
			log.Fatalf("put failed: %v", err)
		}
	}

	if _, err := st.Del(3); err != nil {
		log.Fatalf("del failed: %v", err)
	}

	var out []lsmkv.Entry
	if err := st.Scan(0, 9, &out); err != nil {
		log.Fatalf("scan failed: %v", err)
	}
	for _, e := range out {
		fmt.Printf("%d -> %s\n", e.Key, e.Value)
	}
}
