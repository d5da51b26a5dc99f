package main

import (
	"os"

	"github.com/huddle-sports/huddle-client/cmd/huddle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
