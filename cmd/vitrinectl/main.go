package main

import (
	"os"

	"github.com/vitrine-app/vitrine-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
