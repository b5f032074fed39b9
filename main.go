package main

import (
	"fmt"
	"os"

	"github.com/thomasrocks006-cmyk/Suno/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
