package main

import (
	"errors"
	"fmt"
	"os"

	"pdf-to-word/cmd/pdf2docx/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
