package main

import (
	"fmt"
	"os"

	"github.com/smallbiznis/customerdesk/internal/client/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
