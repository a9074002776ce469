package main

import (
	"log"

	"github.com/joho/godotenv"

	"edurag/internal/cli"
)

var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCommand(version, commit, date).Execute(); err != nil {
		log.Fatalf("edurag: %v", err)
	}
}
