package main

import (
	"os"

	"github.com/wikirelay/wikirelay/tools/eventgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
