// Command zeromem compiles extracted semantic tuples into content-addressed
// memory records and dataflow graph text.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/zeromem/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own failures; anything else (bad flags, unknown
	// subcommand) still needs printing.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
