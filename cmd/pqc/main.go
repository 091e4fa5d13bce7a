package main

import (
	"fmt"
	"os"

	"qrypta/pqc/internal/cli"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderFailure(err))
		os.Exit(1)
	}
}
