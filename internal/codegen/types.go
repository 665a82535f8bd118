package codegen

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var errNoConversion = errors.New("no emitted conversion")

// TypeName renders the host type used for t.
func (g *Generator) TypeName(t cty.Type) string {
	switch {
	case t == cty.Number:
		return "float64"
	case t == cty.String:
		return "string"
	case t == cty.Bool:
		return "bool"
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		return "[]any"
	case t.IsMapType() || t.IsObjectType():
		return "map[string]any"
	}
	return "any"
}

// Literal renders v as an expression. Numbers are typed as float64 so that
// they keep their type when stored in an interface.
func (g *Generator) Literal(v cty.Value) (string, error) {
	t := v.Type()
	if t == cty.NilType {
		return "nil", nil
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("unknown %s value has no literal", t.FriendlyName())
	}
	if v.IsNull() {
		if t.IsPrimitiveType() {
			return "", fmt.Errorf("null %s has no literal", t.FriendlyName())
		}
		return "nil", nil
	}
	switch {
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInf() {
			return "", fmt.Errorf("infinite number has no literal")
		}
		return "float64(" + bf.Text('g', -1) + ")", nil
	case t == cty.String:
		return strconv.Quote(v.AsString()), nil
	case t == cty.Bool:
		return strconv.FormatBool(v.True()), nil
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		var elems []string
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			e, err := g.Literal(ev)
			if err != nil {
				return "", err
			}
			elems = append(elems, e)
		}
		return "[]any{" + strings.Join(elems, ", ") + "}", nil
	case t.IsMapType() || t.IsObjectType():
		attrs := map[string]string{}
		it := v.ElementIterator()
		for it.Next() {
			k, ev := it.Element()
			e, err := g.Literal(ev)
			if err != nil {
				return "", err
			}
			attrs[k.AsString()] = e
		}
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = strconv.Quote(k) + ": " + attrs[k]
		}
		return "map[string]any{" + strings.Join(pairs, ", ") + "}", nil
	}
	return "", fmt.Errorf("%s values have no literal", t.FriendlyName())
}

// convert adapts an expression of type from to the host type of to,
// mirroring the conversions the interpreter applies when reading an input.
func (g *Generator) convert(expr string, from, to cty.Type) (string, error) {
	src, dst := g.TypeName(from), g.TypeName(to)
	switch {
	case src == dst, dst == "any":
		return expr, nil
	case src == "any":
		return expr + ".(" + dst + ")", nil
	case src == "float64" && dst == "string":
		g.Import("strconv")
		return "strconv.FormatFloat(" + expr + ", 'f', -1, 64)", nil
	case src == "bool" && dst == "string":
		g.Import("strconv")
		return "strconv.FormatBool(" + expr + ")", nil
	}
	return "", fmt.Errorf("%s to %s: %w", from.FriendlyName(), to.FriendlyName(), errNoConversion)
}

func sanitize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
