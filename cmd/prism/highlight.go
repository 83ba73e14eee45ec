package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/prism"
)

var (
	flagNoIndex bool
	flagColor   bool
)

var highlightCmd = &cobra.Command{
	Use:   "highlight <file>...",
	Short: "Print semantic highlight ranges for Rust files",
	Long:  "Highlights each file, including Rust code in fixture string arguments and doc comment code blocks. The files are indexed first unless --no-index is given.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHighlight,
}

func init() {
	highlightCmd.Flags().BoolVar(&flagNoIndex, "no-index", false, "do not update the index before highlighting")
	highlightCmd.Flags().BoolVar(&flagColor, "color", false, "print the source with terminal colors instead of ranges")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	paths := make([]string, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return outputError("highlight", fmt.Errorf("resolving path %q: %w", a, err))
		}
		paths = append(paths, abs)
	}

	engine, err := openEngine(resolveDBPath(findRepoRoot(filepath.Dir(paths[0]))), "")
	if err != nil {
		return outputError("highlight", err)
	}
	defer engine.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !flagNoIndex {
		if err := engine.IndexFiles(ctx, paths); err != nil {
			return outputError("highlight", fmt.Errorf("indexing: %w", err))
		}
	}

	results, err := engine.HighlightFiles(ctx, paths)
	if err != nil {
		return outputError("highlight", err)
	}

	out := make([]CLIFileHighlights, 0, len(results))
	for i, res := range results {
		src, err := os.ReadFile(res.Path)
		if err != nil {
			return outputError("highlight", err)
		}
		if flagColor {
			if len(results) > 1 {
				if i > 0 {
					fmt.Fprintln(os.Stdout)
				}
				fmt.Fprintf(os.Stdout, "==> %s <==\n", res.Path)
			}
			if err := renderColored(os.Stdout, src, res.Ranges); err != nil {
				return err
			}
			continue
		}
		out = append(out, toCLIFileHighlights(res, src))
	}
	if flagColor {
		return nil
	}
	return outputResult(CLIResult{Command: "highlight", Results: out})
}

func toCLIFileHighlights(fh prism.FileHighlights, src []byte) CLIFileHighlights {
	lines := newLineIndex(src)
	ranges := make([]CLIRange, 0, len(fh.Ranges))
	for _, r := range fh.Ranges {
		sl, sc := lines.position(r.Range.Start)
		el, ec := lines.position(r.Range.End)
		ranges = append(ranges, CLIRange{
			Start:       r.Range.Start,
			End:         r.Range.End,
			StartLine:   sl,
			StartCol:    sc,
			EndLine:     el,
			EndCol:      ec,
			Highlight:   r.Highlight.String(),
			BindingHash: r.BindingHash,
			Text:        string(src[r.Range.Start:r.Range.End]),
		})
	}
	return CLIFileHighlights{File: fh.Path, Ranges: ranges}
}

// lineIndex converts byte offsets to zero-based line and column.
type lineIndex struct {
	starts []uint32
}

func newLineIndex(src []byte) lineIndex {
	starts := []uint32{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return lineIndex{starts: starts}
}

func (l lineIndex) position(offset uint32) (int, int) {
	line := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	return line, int(offset - l.starts[line])
}
