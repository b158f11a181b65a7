package main

import (
	"os"

	"github.com/reticulated/retic/cmd/retic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
