// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build ignore

// Writebuildinfo dumps the build information of a compiled Go binary as
// JSON, for use as a test fixture:
//
//	go run writebuildinfo.go <binary> <output.json>
package main

import (
	"debug/buildinfo"
	"encoding/json"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) != 3 {
		log.Fatal("Usage: go run writebuildinfo.go <binary> <output.json>")
	}
	bi, err := buildinfo.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	b, err := json.MarshalIndent(bi, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(os.Args[2], b, 0o644); err != nil {
		log.Fatal(err)
	}
}
