package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ComputeSignatureHash computes a deterministic hash from a symbol's semantic
// identity: name, kind, visibility, modifiers and parameters. Location
// changes do NOT affect the hash.
func ComputeSignatureHash(name, kind, visibility string, modifiers []string, params []*FunctionParam) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "visibility:%s\n", visibility)

	sorted := make([]string, len(modifiers))
	copy(sorted, modifiers)
	sort.Strings(sorted)
	fmt.Fprintf(h, "modifiers:%s\n", strings.Join(sorted, ","))

	type paramKey struct {
		name       string
		ordinal    int
		typeExpr   string
		isReceiver bool
	}
	pkeys := make([]paramKey, len(params))
	for i, p := range params {
		pkeys[i] = paramKey{p.Name, p.Ordinal, p.TypeExpr, p.IsReceiver}
	}
	sort.Slice(pkeys, func(i, j int) bool {
		return pkeys[i].ordinal < pkeys[j].ordinal
	})
	for _, pk := range pkeys {
		fmt.Fprintf(h, "param:%s:%d:%s:%v\n", pk.name, pk.ordinal, pk.typeExpr, pk.isReceiver)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
