package recipe

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/cmdgraph/internal/hclutil"
	"github.com/specialistvlad/cmdgraph/internal/param"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// scope resolves buffer.<name> and param.<name> references.
type scope struct {
	buffers map[string]*resource.Buffer
	params  map[string]*param.Dynamic
}

// eval turns an argument expression into the value bound to a slot.
func (s *scope) eval(expr hcl.Expression) (any, error) {
	if trav, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
		switch trav.RootName() {
		case "buffer", "param":
			return s.lookup(trav)
		}
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating %s: %w", expr.Range(), diags)
	}
	return ctyToNative(v)
}

// lookup resolves a buffer.<name> or param.<name> traversal.
func (s *scope) lookup(trav hcl.Traversal) (any, error) {
	name, ok := referencedName(trav)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported reference %s", trav.SourceRange(), hclutil.TraversalKey(trav))
	}
	if trav.RootName() == "buffer" {
		b, ok := s.buffers[name]
		if !ok {
			return nil, fmt.Errorf("%s: undeclared buffer %q", trav.SourceRange(), name)
		}
		return b, nil
	}
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("%s: undeclared param %q", trav.SourceRange(), name)
	}
	return p, nil
}

// evalAll evaluates every expression of an args block.
func (s *scope) evalAll(args map[string]hcl.Expression) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for slot, expr := range args {
		v, err := s.eval(expr)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", slot, err)
		}
		out[slot] = v
	}
	return out, nil
}

// ctyToNative converts a cty.Value into its natural Go representation.
// Numbers become float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("failed to convert cty.Bool to bool: %w", err)
		}
		return b, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			native, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			goMap[key.AsString()] = native
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type for 'any' conversion: %s", ty.FriendlyName())
	}
}
