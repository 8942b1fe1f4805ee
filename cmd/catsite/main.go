// Command catsite renders database-backed page templates.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/catsite/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
