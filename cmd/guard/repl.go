// repl.go — `guard repl`: interactive condition session.
//
// Two line shapes:
//
//	name = literal     bind a value (the right side is any constant expression)
//	<condition>        evaluate; violations print their full diagnostic
//
// Lines starting with '=' alone or containing comparison '==' are treated as
// conditions; only `identifier = ...` binds.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/guardclause/guard"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactive session: bind values and test conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd.OutOrStdout())
		},
	}
}

func runRepl(out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".guard_history")
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	bindings := guard.Bindings{}
	fmt.Fprintln(out, "guard repl — bind with `name = literal`, type a condition to check it, Ctrl-D to exit")

	for {
		input, err := line.Prompt("guard> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if name, lit, ok := splitBinding(input); ok {
			v, err := parseLiteral(lit)
			if err != nil {
				fmt.Fprintln(out, color.RedString(err.Error()))
				continue
			}
			bindings[name] = v
			fmt.Fprintf(out, "%s = %s\n", name, guard.Repr(v))
			continue
		}

		cond, err := guard.ParseCondition(input)
		if err != nil {
			fmt.Fprintln(out, color.RedString(err.Error()))
			continue
		}
		ok, err := cond.Eval(bindings)
		if err != nil {
			fmt.Fprintln(out, color.RedString(err.Error()))
			continue
		}
		if ok {
			fmt.Fprintln(out, color.GreenString("true"))
			continue
		}
		diag, err := cond.Explain(bindings, "")
		if err != nil {
			fmt.Fprintln(out, color.RedString(err.Error()))
			continue
		}
		fmt.Fprintln(out, color.RedString("violated: ")+diag)
	}
}

// splitBinding recognizes `identifier = rhs` where the '=' is a plain
// assignment, not part of ==, !=, <= or >=.
func splitBinding(input string) (name, rhs string, ok bool) {
	i := strings.IndexByte(input, '=')
	if i <= 0 || i+1 >= len(input) {
		return "", "", false
	}
	switch input[i-1] {
	case '!', '<', '>':
		return "", "", false
	}
	if input[i+1] == '=' {
		return "", "", false
	}
	name = strings.TrimSpace(input[:i])
	if !isIdentifier(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(input[i+1:]), true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}
