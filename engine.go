package prism

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jward/prism/internal/highlight"
	prismrt "github.com/jward/prism/internal/runtime"
	"github.com/jward/prism/internal/store"
	"github.com/jward/prism/internal/syntax"
	"github.com/jward/prism/scripts"
)

// Engine orchestrates the prism pipeline: file discovery, change detection,
// symbol extraction via Risor scripts, and semantic highlighting backed by
// the resulting index.
type Engine struct {
	store      *store.Store
	runtime    *prismrt.Runtime
	scriptsDir string
	scriptsFS  fs.FS
	logger     *zap.Logger

	useParallel bool
	workers     int

	cacheSize     int
	index         *symbolIndex
	highlighter   *highlight.Highlighter
	fixturePrefix string
	injection     bool
	concurrency   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls parallel extraction. When true (default), IndexFiles
// uses a worker pool for parsing and script execution, with a single writer
// committing batches to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers sets the number of extraction workers. Zero or less means one
// per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithScriptsFS configures the Engine to load Risor scripts from the given
// filesystem instead of from the scriptsDir path on disk.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCacheSize sets how many symbol-name and parameter lookups the
// highlighter's index cache holds.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithFixturePrefix sets the parameter-name prefix that marks fixture
// arguments.
func WithFixturePrefix(prefix string) Option {
	return func(e *Engine) {
		e.fixturePrefix = prefix
	}
}

// WithInjection turns fixture and doctest highlighting on or off.
func WithInjection(enabled bool) Option {
	return func(e *Engine) {
		e.injection = enabled
	}
}

// WithHighlightConcurrency bounds how many files HighlightFiles works on at
// once.
func WithHighlightConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
// Script loading priority:
//  1. If WithScriptsFS is set, use the provided fs.FS
//  2. Otherwise, if scriptsDir is not empty, use scriptsDir on disk
//  3. Otherwise, use the scripts embedded in the binary
func New(dbPath string, scriptsDir string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("prism: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prism: migrate: %w", err)
	}

	e := &Engine{
		store:         s,
		scriptsDir:    scriptsDir,
		logger:        zap.NewNop(),
		useParallel:   true,
		cacheSize:     1024,
		fixturePrefix: highlight.DefaultFixturePrefix,
		injection:     true,
		concurrency:   4,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scriptsFS == nil && e.scriptsDir == "" {
		e.scriptsFS = scripts.FS
	}

	e.runtime = e.newRuntime(s)

	e.index, err = newSymbolIndex(s, e.cacheSize)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("prism: symbol cache: %w", err)
	}
	e.highlighter = highlight.New(
		highlight.WithIndex(e.index),
		highlight.WithLogger(e.logger.Named("highlight")),
		highlight.WithFixturePrefix(e.fixturePrefix),
		highlight.WithInjection(e.injection),
	)
	return e, nil
}

func (e *Engine) newRuntime(ds store.DataStore) *prismrt.Runtime {
	rtOpts := []prismrt.RuntimeOption{prismrt.WithRuntimeLogger(e.logger.Named("runtime"))}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, prismrt.WithRuntimeFS(e.scriptsFS))
	}
	return prismrt.NewRuntime(ds, e.scriptsDir, rtOpts...)
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// scriptsHash hashes every .risor file the runtime can load, in path
// order, so that any edit to a script invalidates the database.
func (e *Engine) scriptsHash() string {
	h := sha256.New()
	scripts := e.runtime.Scripts()
	if scripts == nil {
		return fmt.Sprintf("%x", h.Sum(nil))
	}
	// WalkDir visits entries in lexical order.
	_ = fs.WalkDir(scripts, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".risor") {
			return nil
		}
		data, err := fs.ReadFile(scripts, p)
		if err != nil {
			return nil
		}
		h.Write([]byte(p))
		h.Write(data)
		return nil
	})
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ScriptsChanged reports whether the scripts differ from what was used to
// build the current database. Returns true if the DB has no stored hash
// (first run) or if the hash doesn't match. When true, the caller should
// delete the DB and reindex from scratch.
func (e *Engine) ScriptsChanged() bool {
	current := e.scriptsHash()
	stored, err := e.store.GetMetadata("scripts_hash")
	if err != nil || stored == "" {
		return true
	}
	return current != stored
}

func (e *Engine) storeScriptsHash() {
	if err := e.store.SetMetadata("scripts_hash", e.scriptsHash()); err != nil {
		e.logger.Warn("failed to store scripts hash", zap.Error(err))
	}
}

// symbolKey identifies a symbol across reindexing runs, where row IDs change.
type symbolKey struct {
	Name   string
	Kind   string
	Parent string
}

// captureSignatures returns the signature hash of every symbol in a file.
func (e *Engine) captureSignatures(fileID int64) (map[symbolKey]string, error) {
	syms, err := e.store.SymbolsByFile(fileID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(syms))
	for _, sym := range syms {
		names[sym.ID] = sym.Kind + ":" + sym.Name
	}
	out := make(map[symbolKey]string, len(syms))
	for _, sym := range syms {
		key := symbolKey{Name: sym.Name, Kind: sym.Kind}
		if sym.ParentSymbolID != nil {
			key.Parent = names[*sym.ParentSymbolID]
		}
		out[key] = sym.SignatureHash
	}
	return out, nil
}

// hashSignatures computes and stores the signature hash of every symbol in
// a freshly extracted file.
func (e *Engine) hashSignatures(fileID int64) error {
	syms, err := e.store.SymbolsByFile(fileID)
	if err != nil {
		return err
	}
	for _, sym := range syms {
		params, err := e.store.FunctionParams(sym.ID)
		if err != nil {
			return err
		}
		hash := store.ComputeSignatureHash(sym.Name, sym.Kind, sym.Visibility, sym.Modifiers, params)
		if err := e.store.UpdateSignatureHash(sym.ID, hash); err != nil {
			return err
		}
	}
	return nil
}

// finishFile hashes the new symbols of a file and reports how many of them
// are new or have a different signature than before.
func (e *Engine) finishFile(fileID int64, old map[symbolKey]string) (int, error) {
	if err := e.hashSignatures(fileID); err != nil {
		return 0, fmt.Errorf("signature hashes: %w", err)
	}
	current, err := e.captureSignatures(fileID)
	if err != nil {
		return 0, fmt.Errorf("capture new symbols: %w", err)
	}
	changed := 0
	for key, hash := range current {
		if prev, ok := old[key]; !ok || prev != hash {
			changed++
		}
	}
	for key := range old {
		if _, ok := current[key]; !ok {
			changed++
		}
	}
	return changed, nil
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// uses a worker pool for concurrent extraction with batched SQLite writes.
// Otherwise falls back to the serial path.
//
// For each file:
// 1. Detect language from extension, skipping unsupported files
// 2. Skip unchanged files (same content hash)
// 3. Capture old signatures, delete stale data and the old file record
// 4. Insert the new file record and run the language's extraction script
// 5. Hash the new signatures
//
// Errors on individual files are collected; processing continues. The
// highlighter's index cache is purged whenever anything was reindexed.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	var (
		indexed int
		err     error
	)
	if e.useParallel {
		indexed, err = e.indexFilesParallel(ctx, paths)
	} else {
		indexed, err = e.indexFilesSerial(ctx, paths)
	}
	if indexed > 0 {
		e.index.Purge()
	}
	if err != nil {
		return err
	}
	e.storeScriptsHash()
	return nil
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) (int, error) {
	var (
		errs    []error
		indexed int
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		ok, err := e.indexFile(ctx, path)
		if ok {
			indexed++
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return indexed, fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return indexed, nil
}

// indexFile reports whether the store was modified for path.
func (e *Engine) indexFile(ctx context.Context, path string) (bool, error) {
	item, skip, err := e.prepareFile(path)
	if err != nil || skip {
		return false, err
	}

	extras := map[string]any{
		"file_path": item.path,
		"file_id":   item.fileID,
	}
	if err := e.runtime.RunScript(ctx, prismrt.ExtractionScriptPath(item.lang), extras); err != nil {
		e.forgetFile(item)
		return true, fmt.Errorf("extraction script: %w", err)
	}

	changed, err := e.finishFile(item.fileID, item.oldSignatures)
	if err != nil {
		return true, err
	}
	e.logger.Debug("indexed file", zap.String("path", path), zap.Int("changed_symbols", changed))
	return true, nil
}

// prepareFile hashes the file, skips it if unchanged, and otherwise replaces
// its file record. Returns (item, skip, error).
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	lang, ok := syntax.LanguageForFile(path)
	if !ok {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return workItem{}, true, nil // unchanged
	}

	var old map[symbolKey]string
	if existing != nil {
		old, err = e.captureSignatures(existing.ID)
		if err != nil {
			return workItem{}, false, fmt.Errorf("capture old symbols: %w", err)
		}
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{
		path:          path,
		lang:          lang,
		fileID:        fileID,
		oldSignatures: old,
	}, false, nil
}

// forgetFile drops the record of a file whose extraction failed so that the
// next run retries it instead of skipping it as unchanged.
func (e *Engine) forgetFile(item workItem) {
	if err := e.store.DeleteFile(item.fileID); err != nil {
		e.logger.Warn("failed to drop file record", zap.String("path", item.path), zap.Error(err))
	}
}

func (e *Engine) workerCount(items int) int {
	n := e.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, items))
}

// skipDirs lists directories excluded from the filesystem walk.
var skipDirs = map[string]bool{
	"target": true,
	"vendor": true,
}

// IndexDirectory walks root and indexes all files with supported extensions.
// If root is inside a git repository, uses git ls-files to respect
// .gitignore. Falls back to a filesystem walk (skipping hidden dirs, target
// and vendor) if git is unavailable. Files previously indexed under root that
// no longer exist are removed from the store.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(ctx, root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", zap.String("root", root), zap.Error(err))
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	if err := e.pruneMissing(root, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func (e *Engine) gitListFiles(ctx context.Context, root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := syntax.LanguageForFile(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := syntax.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// pruneMissing deletes files under root that are in the store but not in
// paths.
func (e *Engine) pruneMissing(root string, paths []string) error {
	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		present[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	pruned := 0
	for _, f := range files {
		if !strings.HasPrefix(f.Path, prefix) || present[f.Path] {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("prune %s: %w", f.Path, err)
		}
		pruned++
	}
	if pruned > 0 {
		e.index.Purge()
		e.logger.Debug("pruned missing files", zap.Int("count", pruned))
	}
	return nil
}
