// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command xrsim drives the xr session driver against the scripted
// runtime and a software graphics context.
//
//	xrsim run --frames 120 --mirror mirror.png --trace run.cbor
//	xrsim trace run.cbor
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xrsim:", err)
		os.Exit(1)
	}
}
