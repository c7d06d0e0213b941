package main

import (
	"os"

	"github.com/echotype/echotype/cmd/echotype/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
