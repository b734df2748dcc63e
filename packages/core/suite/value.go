package suite

import (
	"github.com/abdul-hamid-achik/timecheck/packages/core/env"
	"github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// nodeValue converts a YAML node to a JSON-ready value. Mappings become
// *http.Body so their key order survives; scalars keep the type YAML
// resolves for them (int, float64, bool, nil, string).
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "line %d", n.Line)
		}
		return v, nil
	case yaml.MappingNode:
		body := http.NewBody()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			body.Set(n.Content[i].Value, v)
		}
		return body, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	default:
		return nil, nil
	}
}

// resolveValue substitutes placeholders throughout v, preserving body key
// order.
func resolveValue(res *env.Resolver, v any) (any, error) {
	switch x := v.(type) {
	case *http.Body:
		out := http.NewBody()
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			resolved, err := resolveValue(res, item)
			if err != nil {
				return nil, errors.Wrapf(err, "body field %q", k)
			}
			out.Set(k, resolved)
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			resolved, err := resolveValue(res, item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return res.Value(v)
	}
}
