package main

import (
	"os"

	"github.com/TualatinX/ledger-go/cli"
)

func main() {
	// Errors are printed by the parser.
	if err := cli.NewCommandLine(os.Stdout).Run(os.Args[1:]); err != nil && !cli.IsHelp(err) {
		os.Exit(1)
	}
}
