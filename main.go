package main

import (
	"os"

	"github.com/fxposquad/termbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
