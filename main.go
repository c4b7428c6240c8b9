package main

import (
	"os"

	"github.com/yummyfi/yummyfi-backend/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
