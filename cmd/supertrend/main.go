package main

import (
	"os"

	"github.com/rustyeddy/supertrend/cmd/supertrend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
