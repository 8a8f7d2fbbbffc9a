package main

import (
	"fmt"
	"os"

	"github.com/dirorg/dirorg"
)

func main() {
	if err := dirorg.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
