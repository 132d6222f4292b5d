package main

import (
	"os"

	"github.com/anand/mathdrill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
