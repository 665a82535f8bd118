package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// present reports whether an optional attribute was written in the source.
// gohcl fills omitted attributes with empty-range expressions, not nil.
func present(ctx context.Context, expr hcl.Expression, name string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	if r.Start.Byte == r.End.Byte {
		ctxlog.FromContext(ctx).Debug("Optional attribute omitted.", "attribute", name, "range", r.String())
		return false
	}
	return true
}

// convertDefault converts a variable default to its declared type.
func convertDefault(name string, v cty.Value, t cty.Type, rng hcl.Range) (cty.Value, hcl.Diagnostics) {
	if t == cty.DynamicPseudoType {
		return v, nil
	}
	out, err := convert.Convert(v, t)
	if err != nil {
		return cty.NilVal, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid variable default",
			Detail:   fmt.Sprintf("Variable %q expects %s: %s.", name, t.FriendlyName(), err),
			Subject:  rng.Ptr(),
		}}
	}
	return out, nil
}
