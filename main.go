package main

import (
	"log"

	"github.com/lumina-beauty/lumina-offer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
