package main

import (
	"log"

	"github.com/procupilot/procupilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
