package main

import (
	"fmt"
	"os"
)

var (
	Version    = "dev"
	CommitHash = "unknown"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
