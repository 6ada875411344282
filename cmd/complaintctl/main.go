package main

import (
	"os"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd(nil)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
