package main

// CLIResult is the top-level JSON envelope for all commands that print
// results.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Signature  string   `json:"signature,omitempty"`
	File       string   `json:"file,omitempty"`
	StartLine  int      `json:"start_line"`
	StartCol   int      `json:"start_col"`
	EndLine    int      `json:"end_line"`
	EndCol     int      `json:"end_col"`
}

// CLIRange is one highlighted range. Offsets are bytes; lines and columns
// are zero-based.
type CLIRange struct {
	Start       uint32  `json:"start"`
	End         uint32  `json:"end"`
	StartLine   int     `json:"start_line"`
	StartCol    int     `json:"start_col"`
	EndLine     int     `json:"end_line"`
	EndCol      int     `json:"end_col"`
	Highlight   string  `json:"highlight"`
	BindingHash *uint64 `json:"binding_hash,omitempty"`
	Text        string  `json:"text"`
}

// CLIFileHighlights holds the ranges of one file.
type CLIFileHighlights struct {
	File   string     `json:"file"`
	Ranges []CLIRange `json:"ranges"`
}
