package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	if err := newApp(os.Getenv).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(getenv func(string) string) *cli.App {
	return &cli.App{
		Name:    "storefront",
		Usage:   "Local storefront and test fixture management tool",
		Version: version,
		Commands: []*cli.Command{
			ServeCommand(getenv),
			SeedUserCommand(getenv),
			CouponCommand(getenv),
			OrderCommand(getenv),
			LoginCommand(getenv),
		},
	}
}
