// Package main is the entry point for the duckc CLI binary.
package main

import (
	"os"

	cli "duck-commerce/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
