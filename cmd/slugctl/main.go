// Command slugctl manages slugs in a slugkeeper database from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/pkordes/slugkeeper/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slugctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
