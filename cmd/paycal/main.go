package main

import (
	"os"

	"github.com/warp/paycal/cmd/paycal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
