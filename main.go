package main

import (
	"os"

	"github.com/hvergara/dona/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
