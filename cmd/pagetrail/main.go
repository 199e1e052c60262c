package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pagetrail/pagetrail/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Sync credentials may live in a .env file next to the binary.
	_ = godotenv.Load()

	if err := cli.Run(version); err != nil {
		fmt.Fprintf(os.Stderr, "pagetrail: %v\n", err)
		os.Exit(1)
	}
}
