package main

import (
	"github.com/joho/godotenv"

	"ticket-alerts/internal/cli"
)

func main() {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()
	cli.Execute()
}
