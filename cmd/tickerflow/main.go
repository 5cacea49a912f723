// Command tickerflow plans, runs and checks per-ticker report pipelines.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tickerflow/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
