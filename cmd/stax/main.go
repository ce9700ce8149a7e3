package main

import (
	"os"

	"stax.dev/stax/internal/cli"
	"stax.dev/stax/internal/output"
)

var version = "dev"

func main() {
	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		output.NewSplog().Error("%v", err)
		os.Exit(1)
	}
}
