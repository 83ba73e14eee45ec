package prism

import (
	"github.com/jward/prism/internal/highlight"
	"github.com/jward/prism/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// APIs. External consumers use these names; no conversion is needed.

type Store = store.Store
type Symbol = store.Symbol
type File = store.File
type FunctionParam = store.FunctionParam

type HlRange = highlight.HlRange
type Highlight = highlight.Highlight
