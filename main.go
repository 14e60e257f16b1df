package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/insightdelivered/bank-statement-parser/internal/commands"
)

func main() {
	// Settings may also come from a .env file in the working directory.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
