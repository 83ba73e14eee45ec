package prism

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// FileHighlights holds the highlighting of one file.
type FileHighlights struct {
	Path   string
	Ranges []HlRange
}

// Highlight reads the file at path and highlights it. Names the file does
// not declare are resolved against the index, so files should be indexed
// first for cross-file fixture parameters to be recognized.
func (e *Engine) Highlight(ctx context.Context, path string) ([]HlRange, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prism: read %s: %w", path, err)
	}
	ranges, err := e.highlighter.Highlight(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("prism: highlight %s: %w", path, err)
	}
	return ranges, nil
}

// HighlightSource highlights src as a top-level document.
func (e *Engine) HighlightSource(ctx context.Context, src []byte) ([]HlRange, error) {
	return e.highlighter.Highlight(ctx, src)
}

// HighlightFiles highlights several files concurrently. Results are in the
// order of paths. The first failure cancels the remaining work.
func (e *Engine) HighlightFiles(ctx context.Context, paths []string) ([]FileHighlights, error) {
	out := make([]FileHighlights, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.concurrency))
	for i, path := range paths {
		g.Go(func() error {
			ranges, err := e.Highlight(gctx, path)
			if err != nil {
				return err
			}
			out[i] = FileHighlights{Path: path, Ranges: ranges}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
