package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	c := newCLI()
	err := c.rootCmd().Execute()
	c.close()
	if err != nil {
		os.Exit(1)
	}
}
