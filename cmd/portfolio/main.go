package main

import (
	"os"

	"portfolio/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
