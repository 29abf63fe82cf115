package main

import (
	"os"

	"github.com/draftpress/draftpress/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
