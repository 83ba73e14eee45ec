package highlight

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/jward/prism/internal/syntax"
)

// ParamBinding is the formal parameter a call argument is bound to.
type ParamBinding struct {
	Name    string
	Ordinal int // position in the callee's parameter list, receiver included
	Callee  string
}

// ActiveParameterLookup finds the parameter an argument expression binds to.
type ActiveParameterLookup interface {
	At(ctx context.Context, arg *sitter.Node) (ParamBinding, bool)
}

// callSiteLookup resolves callees by name: functions declared in the same
// document win, the index is consulted otherwise.
type callSiteLookup struct {
	src    []byte
	defs   *definitionTable
	index  SymbolIndex
	logger *zap.Logger
}

func (l *callSiteLookup) At(ctx context.Context, arg *sitter.Node) (ParamBinding, bool) {
	args := arg.Parent()
	if args == nil || args.Type() != "arguments" {
		return ParamBinding{}, false
	}
	call := args.Parent()
	if call == nil || call.Type() != "call_expression" {
		return ParamBinding{}, false
	}

	argIndex, n := -1, 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		switch c.Type() {
		case "line_comment", "block_comment", "attribute_item":
			continue
		}
		if syntax.SameNode(c, arg) {
			argIndex = n
			break
		}
		n++
	}
	if argIndex < 0 {
		return ParamBinding{}, false
	}

	name, methodCall := calleeName(call.ChildByFieldName("function"), l.src)
	if name == "" {
		return ParamBinding{}, false
	}
	params, ok := l.paramsOf(ctx, name)
	if !ok {
		return ParamBinding{}, false
	}
	if methodCall && len(params) > 0 && params[0].IsReceiver {
		params = params[1:]
	}
	if argIndex >= len(params) {
		return ParamBinding{}, false
	}
	p := params[argIndex]
	return ParamBinding{Name: p.Name, Ordinal: p.Ordinal, Callee: name}, true
}

// calleeName returns the name of the called function and whether the call
// uses method syntax, where the receiver is not among the arguments.
func calleeName(fn *sitter.Node, src []byte) (string, bool) {
	if fn == nil {
		return "", false
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src), false
	case "scoped_identifier":
		if name := fn.ChildByFieldName("name"); name != nil {
			return name.Content(src), false
		}
	case "field_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return field.Content(src), true
		}
	case "generic_function":
		return calleeName(fn.ChildByFieldName("function"), src)
	}
	return "", false
}

func (l *callSiteLookup) paramsOf(ctx context.Context, name string) ([]IndexedParam, bool) {
	if def, ok := l.defs.lookup(name, ValueNamespace); ok && def.Kind == "function" {
		return functionParams(def.Node, l.src), true
	}
	if l.index == nil {
		return nil, false
	}
	syms, err := l.index.SymbolsByName(ctx, name)
	if err != nil {
		l.logger.Debug("callee lookup failed", zap.String("name", name), zap.Error(err))
		return nil, false
	}
	for _, s := range syms {
		if s.Kind != "function" && s.Kind != "method" {
			continue
		}
		params, err := l.index.FunctionParams(ctx, s.ID)
		if err != nil {
			l.logger.Debug("parameter lookup failed", zap.Int64("symbol", s.ID), zap.Error(err))
			return nil, false
		}
		return params, true
	}
	return nil, false
}

// functionParams lists the parameters of a function_item.
func functionParams(fn *sitter.Node, src []byte) []IndexedParam {
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []IndexedParam
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		switch c.Type() {
		case "self_parameter":
			params = append(params, IndexedParam{Name: "self", Ordinal: len(params), IsReceiver: true})
		case "parameter":
			params = append(params, IndexedParam{Name: patternName(c.ChildByFieldName("pattern"), src), Ordinal: len(params)})
		}
	}
	return params
}

// patternName returns the identifier bound by a simple pattern such as `x`,
// `mut x` or `ref x`, or "" for destructuring patterns.
func patternName(p *sitter.Node, src []byte) string {
	for p != nil {
		switch p.Type() {
		case "identifier":
			return p.Content(src)
		case "mut_pattern", "ref_pattern":
			cnt := int(p.NamedChildCount())
			if cnt == 0 {
				return ""
			}
			p = p.NamedChild(cnt - 1)
		default:
			return ""
		}
	}
	return ""
}
