package rules

import (
	"fmt"

	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

const resultAttr = "result"

// ParseHCL reads directives written as HCL blocks. Block order is
// declaration order.
func ParseHCL(src []byte, name string) ([]pattern.Rule, error) {
	file, diags := hclsyntax.ParseConfig(src, name, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unexpected body type", ErrSyntax, name)
	}
	if len(body.Attributes) > 0 {
		return nil, fmt.Errorf("%w: %s: top-level attributes are not allowed", ErrSyntax, name)
	}

	out := make([]pattern.Rule, 0, len(body.Blocks))
	for _, block := range body.Blocks {
		rule, err := parseBlock(block, len(out))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", block.DefRange(), err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func parseBlock(block *hclsyntax.Block, index int) (pattern.Rule, error) {
	kind, err := pattern.ParseKind(block.Type)
	if err != nil {
		return pattern.Rule{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(block.Labels) != 1 {
		return pattern.Rule{}, fmt.Errorf("%w: %s takes exactly one pattern label", ErrSyntax, kind)
	}
	if len(block.Body.Blocks) > 0 {
		return pattern.Rule{}, fmt.Errorf("%w: %s does not take nested blocks", ErrSyntax, kind)
	}
	rule := pattern.Rule{Kind: kind, Pattern: block.Labels[0], Index: index}

	attrs := block.Body.Attributes
	for attrName := range attrs {
		if kind != pattern.Rename || attrName != resultAttr {
			return pattern.Rule{}, fmt.Errorf("%w: %s does not take attribute %q", ErrSyntax, kind, attrName)
		}
	}
	if kind == pattern.Rename {
		attr, ok := attrs[resultAttr]
		if !ok {
			return pattern.Rule{}, fmt.Errorf("%w: rule needs a %q attribute", ErrSyntax, resultAttr)
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return pattern.Rule{}, fmt.Errorf("%w: %s", ErrSyntax, diags.Error())
		}
		if val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
			return pattern.Rule{}, fmt.Errorf("%w: %q must be a string", ErrSyntax, resultAttr)
		}
		rule.Result = val.AsString()
	}
	return rule, validate(rule)
}
