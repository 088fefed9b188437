package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/jason-s-yu/blackjack/internal/cli"
)

func main() {
	cli.Execute()
}
