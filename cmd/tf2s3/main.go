package main

import (
	"os"

	"github.com/EPdacoder05/TF2S3-migration/internal/cli"
)

// Set at build time via -ldflags.
var version = "dev"

func main() {
	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
