// explain.go — `guard explain`: print the violation diagnostic for a
// condition that does not hold.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guardclause/guard"
)

func newExplainCmd() *cobra.Command {
	var bf bindingFlags
	var description string
	cmd := &cobra.Command{
		Use:   "explain <condition>",
		Short: "show why a condition is violated under the given bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := guard.ParseCondition(args[0])
			if err != nil {
				return err
			}
			bindings, err := bf.load()
			if err != nil {
				return err
			}
			ok, err := cond.Eval(bindings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ok {
				fmt.Fprintf(out, "%s %s\n", color.GreenString("ok:"), cond.Text())
				return nil
			}
			diag, err := cond.Explain(bindings, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", color.RedString("violated:"), diag)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&bf.binds, "bind", nil, "binding as name=literal (repeatable)")
	cmd.Flags().StringVar(&bf.envFile, "env-file", "", "TOML file with bindings")
	cmd.Flags().StringVar(&description, "description", "", "human description added to the diagnostic")
	return cmd
}
