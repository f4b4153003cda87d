// Package main provides the entry point for the wikimg CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/wikimg/cmd/wikimg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
