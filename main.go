package main

import (
	"os"

	"github.com/hmkim/logsift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
