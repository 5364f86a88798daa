package main

import (
	"fmt"
	"os"

	"github.com/cwarden/skuld/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "skuld: %v\n", err)
		os.Exit(1)
	}
}
