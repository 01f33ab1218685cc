package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/spigell/placement-engine/cmd"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
