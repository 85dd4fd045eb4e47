// eval.go — `guard eval`: evaluate a condition to true/false.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardclause/guard"
)

func newEvalCmd() *cobra.Command {
	var bf bindingFlags
	cmd := &cobra.Command{
		Use:   "eval <condition>",
		Short: "evaluate a condition against bindings and print true/false",
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
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&bf.binds, "bind", nil, "binding as name=literal (repeatable)")
	cmd.Flags().StringVar(&bf.envFile, "env-file", "", "TOML file with bindings")
	return cmd
}
