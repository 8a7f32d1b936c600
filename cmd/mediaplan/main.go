// Package main is the entry point for the offline mediaplan CLI.
package main

import (
	"os"

	"github.com/AngelCh415/mediaplan-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
