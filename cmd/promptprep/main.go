package main

import (
	"os"

	"github.com/promptprep/promptprep/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
