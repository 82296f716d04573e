package main

import (
	"os"

	"github.com/allanpk716/docx_mailmerge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
