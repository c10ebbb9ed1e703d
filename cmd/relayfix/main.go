package main

import (
	"fmt"
	"os"

	"github.com/karol/relayfix/internal/cmd"
	"github.com/karol/relayfix/internal/models"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if models.IsHandled(err) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
