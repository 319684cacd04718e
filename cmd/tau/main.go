// Command tau builds and runs reactive time-series pipelines.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/tau/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
