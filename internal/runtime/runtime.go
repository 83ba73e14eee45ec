package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/prism/internal/store"
)

// Runtime runs extraction scripts in a Risor VM. Scripts see the
// tree-sitter host functions, a zap-backed log object and, when a
// DataStore is attached, the store functions.
type Runtime struct {
	store   store.DataStore
	scripts fs.FS
	logger  *zap.Logger
	sources *sourceStore
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads scripts and resolves imports from fsys. It takes
// precedence over the scripts directory passed to NewRuntime.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.scripts = fsys
	}
}

// WithRuntimeLogger routes the scripts' log.* calls to logger.
func WithRuntimeLogger(logger *zap.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime over s and the scripts under scriptsDir.
// s may be nil for scripts that only parse.
func NewRuntime(s store.DataStore, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:   s,
		logger:  zap.NewNop(),
		sources: newSourceStore(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.scripts == nil && scriptsDir != "" {
		r.scripts = os.DirFS(scriptsDir)
	}
	return r
}

// Scripts returns the filesystem scripts are loaded from, or nil.
func (r *Runtime) Scripts() fs.FS {
	return r.scripts
}

// RunScript loads the script at scriptPath and runs it. extraGlobals are
// added to the standard globals, overriding them on name clashes.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource runs Risor source directly.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	opts := make([]risor.Option, 0, len(names)+1)
	for _, name := range names {
		opts = append(opts, risor.WithGlobal(name, globals[name]))
	}
	if r.scripts != nil {
		opts = append(opts, risor.WithImporter(importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: names,
			SourceFS:    r.scripts,
			Extensions:  []string{".risor"},
		})))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// LoadScript returns the source of the script at p. Absolute paths are
// read from disk unless an fs.FS was given, in which case they are taken
// relative to its root.
func (r *Runtime) LoadScript(p string) (string, error) {
	if filepath.IsAbs(p) && r.scripts == nil {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("runtime: load script: %w", err)
		}
		return string(data), nil
	}
	if r.scripts == nil {
		return "", fmt.Errorf("runtime: load script %s: no scripts configured", p)
	}

	name := path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
	data, err := fs.ReadFile(r.scripts, name)
	if err != nil {
		return "", fmt.Errorf("runtime: load script: %w", err)
	}
	return string(data), nil
}

// ExtractionScriptPath returns the path of a language's extraction script
// relative to the scripts root.
func ExtractionScriptPath(language string) string {
	return filepath.Join("extract", language+".risor")
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse":      makeParseFn(r.sources),
		"parse_src":  makeParseSrcFn(r.sources),
		"node_text":  makeNodeTextFn(r.sources),
		"node_child": makeNodeChildFn(),
		"query":      makeQueryFn(r.sources),
		"log":        mustProxy(&logObject{logger: r.logger.Named("script")}),
	}
	if r.store != nil {
		globals["insert_symbol"] = makeInsertSymbolFn(r.store)
		globals["insert_function_param"] = makeInsertFunctionParamFn(r.store)
		globals["symbols_by_name"] = makeSymbolsByNameFn(r.store)
		globals["symbols_by_file"] = makeSymbolsByFileFn(r.store)
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy: %v", err))
	}
	return p
}
