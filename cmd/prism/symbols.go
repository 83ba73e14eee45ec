package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <name>",
	Short: "List indexed symbols with the given name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return outputError("symbols", err)
	}
	engine, err := openEngine(resolveDBPath(findRepoRoot(wd)), "")
	if err != nil {
		return outputError("symbols", err)
	}
	defer engine.Close()

	q := engine.Query()
	syms, err := q.Symbols(args[0])
	if err != nil {
		return outputError("symbols", err)
	}

	out := make([]CLISymbol, 0, len(syms))
	for _, s := range syms {
		sig, err := q.Signature(s.ID)
		if err != nil {
			return outputError("symbols", fmt.Errorf("signature of %d: %w", s.ID, err))
		}
		cs := CLISymbol{
			ID:         s.ID,
			Name:       s.Name,
			Kind:       s.Kind,
			Visibility: s.Visibility,
			Modifiers:  s.Modifiers,
			StartLine:  s.StartLine,
			StartCol:   s.StartCol,
			EndLine:    s.EndLine,
			EndCol:     s.EndCol,
		}
		if sig != nil {
			cs.File = sig.File
			cs.Signature = sig.String()
		}
		out = append(out, cs)
	}
	total := len(out)
	return outputResult(CLIResult{Command: "symbols", Results: out, TotalCount: &total})
}
