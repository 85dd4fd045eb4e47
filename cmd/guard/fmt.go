// fmt.go — `guard fmt`: print the canonical re-serialization of a condition.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardclause/guard"
)

func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <condition>",
		Short: "parse a condition and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := guard.ParseCondition(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), guard.FormatExpr(cond.AST()))
			return nil
		},
	}
}
