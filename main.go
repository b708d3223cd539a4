package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mridultyagi687/TSGLogistics-sub000/cmd"
)

func main() {
	// A missing .env is fine; overrides still come from the real environment.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
