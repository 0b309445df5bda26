package main

import (
	"os"

	"github.com/msto63/zuse/cmd/zuse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
