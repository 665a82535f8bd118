package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/flowgridgo/internal/serialize"
	"github.com/zclconf/go-cty/cty"
)

// Write renders a document in the block format Load reads. Node state
// becomes attributes, input defaults a defaults object. Null attributes are
// left out.
func Write(doc *serialize.Document) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for _, v := range doc.Variables {
		def, err := serialize.DecodeValue(v.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		blk := body.AppendNewBlock("variable", []string{v.Name}).Body()
		blk.SetAttributeRaw("type", typeTokens(def.Type()))
		if !def.IsNull() {
			blk.SetAttributeValue("default", def)
		}
		body.AppendNewline()
	}

	for _, n := range doc.Nodes {
		blk := body.AppendNewBlock("node", []string{n.Type, n.ID}).Body()
		blk.SetAttributeValue("position", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(n.Position.X), cty.NumberFloatVal(n.Position.Y),
		}))
		if !n.State.IsZero() {
			state, err := serialize.DecodeValue(n.State)
			if err != nil {
				return nil, fmt.Errorf("node %q state: %w", n.ID, err)
			}
			if err := writeAttributes(blk, state); err != nil {
				return nil, fmt.Errorf("node %q: %w", n.ID, err)
			}
		}
		if !n.Defaults.IsZero() {
			defs, err := serialize.DecodeValue(n.Defaults)
			if err != nil {
				return nil, fmt.Errorf("node %q defaults: %w", n.ID, err)
			}
			blk.SetAttributeValue("defaults", defs)
		}
		body.AppendNewline()
	}

	for _, c := range doc.Connections {
		blk := body.AppendNewBlock("connect", nil).Body()
		blk.SetAttributeValue("from", cty.StringVal(c.From))
		blk.SetAttributeValue("to", cty.StringVal(c.To))
		body.AppendNewline()
	}
	return hclwrite.Format(f.Bytes()), nil
}

func writeAttributes(body *hclwrite.Body, state cty.Value) error {
	t := state.Type()
	if !t.IsObjectType() && !t.IsMapType() {
		return fmt.Errorf("state is %s, not an object", t.FriendlyName())
	}
	if state.IsNull() {
		return nil
	}
	it := state.ElementIterator()
	for it.Next() {
		k, v := it.Element()
		if v.IsNull() {
			continue
		}
		if !hclsyntax.ValidIdentifier(k.AsString()) {
			return fmt.Errorf("attribute %q is not an identifier", k.AsString())
		}
		body.SetAttributeValue(k.AsString(), v)
	}
	return nil
}

func typeTokens(t cty.Type) hclwrite.Tokens {
	return hclwrite.Tokens{{Type: hclsyntax.TokenIdent, Bytes: []byte(typeexpr.TypeString(t))}}
}
