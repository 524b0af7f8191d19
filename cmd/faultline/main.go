package main

import (
	"os"

	"github.com/faultline-io/faultline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
