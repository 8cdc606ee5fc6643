package main

import (
	"log"

	"kvfs/cmd/kvfs/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}
