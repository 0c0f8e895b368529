package main

import (
	"os"

	"github.com/rustyeddy/poswatch/cmd/poswatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
