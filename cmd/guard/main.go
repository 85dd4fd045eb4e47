// guard — command-line front-end for the condition engine.
//
// Subcommands:
//
//	guard eval 'x < 5' --bind x=100            evaluate to true/false
//	guard explain 'x < 5' --bind x=100         print the violation diagnostic
//	guard repl                                 interactive session
//	guard fmt 'x<5 and y in[1,2]'              canonical re-serialization
//
// Bindings come from repeated --bind name=literal flags and/or a TOML file
// via --env-file; --bind wins on conflicts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "guard",
		Short:         "evaluate and explain design-by-contract conditions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEvalCmd(), newExplainCmd(), newReplCmd(), newFmtCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
