package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/staticfold-labs/notemill-cli/internal/adapters/driving/cli"
)

// version is set by the linker at release build time.
var version = "dev"

func main() {
	// A .env in the working directory supplies NOTION_TOKEN and
	// NOTION_DATABASE_ID during local development. Absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
