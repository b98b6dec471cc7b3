// Package hclutil holds small helpers over hashicorp/hcl shared by the
// recipe loader.
package hclutil

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
)

// TraversalKey generates a stable, canonical string representation for an hcl.Traversal,
// suitable for use as a map key.
func TraversalKey(t hcl.Traversal) string {
	// e.g., buffer.x or param.p
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// References returns every unique variable traversal found in exprs, sorted
// by TraversalKey. Nil expressions are ignored.
func References(exprs ...hcl.Expression) []hcl.Traversal {
	traversals := make(map[string]hcl.Traversal)
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, traversal := range expr.Variables() {
			traversals[TraversalKey(traversal)] = traversal
		}
	}

	keys := make([]string, 0, len(traversals))
	for k := range traversals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]hcl.Traversal, 0, len(keys))
	for _, k := range keys {
		out = append(out, traversals[k])
	}
	return out
}

// IsExprDefined checks if an HCL expression was actually present in the
// source. The decoder populates omitted optional expression fields with
// zero-width placeholder expressions, so a nil check is not enough.
func IsExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.", "attribute", attrName, "hcl_range", r.String(), "is_defined", defined)
	return defined
}

// BodyAttributes converts a block body that holds only attributes into a map
// of expressions. It returns nil for a nil or empty body.
func BodyAttributes(body hcl.Body) (map[string]hcl.Expression, hcl.Diagnostics) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() || len(attrs) == 0 {
		return nil, diags
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, diags
}
