package prism

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	prismrt "github.com/jward/prism/internal/runtime"
	"github.com/jward/prism/internal/store"
)

// workItem holds everything an extraction worker needs.
type workItem struct {
	path   string
	lang   string
	fileID int64
	batch  *store.BatchedStore

	// Signatures of the file's previous symbols, compared after commit.
	oldSignatures map[symbolKey]string
}

// indexFilesParallel indexes files using a three-phase parallel pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse and extract via worker pool (each with own Runtime).
//	Phase C (serial):   Commit batches to SQLite, hash signatures.
//
// Returns how many files had their store rows replaced.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) (int, error) {
	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return len(items), fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			continue
		}
		item.batch = store.NewBatchedStore(e.store)
		items = append(items, item)
	}

	if len(items) == 0 {
		return 0, nil
	}

	// ---- Phase B: Parallel extraction ----
	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range e.workerCount(len(items)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				err := e.extractFile(ctx, item)
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			e.forgetFile(res.item)
			continue
		}

		if err := e.store.CommitBatch(res.item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			e.forgetFile(res.item)
			continue
		}

		changed, err := e.finishFile(res.item.fileID, res.item.oldSignatures)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.item.path, err))
			continue
		}
		e.logger.Debug("indexed file", zap.String("path", res.item.path), zap.Int("changed_symbols", changed))
	}

	if len(errs) > 0 {
		return len(items), fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return len(items), nil
}

// extractFile runs the extraction script for a single file into its
// BatchedStore. Each call creates its own Runtime so tree-sitter parsing is
// goroutine-safe.
func (e *Engine) extractFile(ctx context.Context, item workItem) error {
	rt := e.newRuntime(item.batch)

	extras := map[string]any{
		"file_path": item.path,
		"file_id":   item.fileID,
	}
	if err := rt.RunScript(ctx, prismrt.ExtractionScriptPath(item.lang), extras); err != nil {
		return fmt.Errorf("extraction script: %w", err)
	}
	return nil
}
