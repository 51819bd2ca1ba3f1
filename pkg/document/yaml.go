package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// FromYAML converts a YAML document into JSON text so it can go through
// [Parse]. Mapping key order is preserved. Only the first document of a
// multi-document stream is converted.
func FromYAML(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, fmt.Errorf("%w: %v", ErrMalformed, err), "document is not valid YAML")
	}
	if root.Kind == 0 {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, ErrMalformed, "document is empty")
	}

	buf, err := appendYAML(nil, &root, 0)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, fmt.Errorf("%w: %v", ErrMalformed, err), "convert YAML")
	}
	return buf, nil
}

// maxAliasDepth stops alias chains that refer back to themselves.
const maxAliasDepth = 64

func appendYAML(buf []byte, n *yaml.Node, depth int) ([]byte, error) {
	if depth > maxAliasDepth {
		return nil, fmt.Errorf("line %d: nesting too deep", n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return append(buf, "null"...), nil
		}
		return appendYAML(buf, n.Content[0], depth)

	case yaml.AliasNode:
		return appendYAML(buf, n.Alias, depth+1)

	case yaml.MappingNode:
		buf = append(buf, '{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf = append(buf, ',')
			}
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			kb, _ := json.Marshal(k.Value)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			var err error
			if buf, err = appendYAML(buf, n.Content[i+1], depth+1); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil

	case yaml.SequenceNode:
		buf = append(buf, '[')
		for i, c := range n.Content {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = appendYAML(buf, c, depth+1); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil

	case yaml.ScalarNode:
		return appendScalar(buf, n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func appendScalar(buf []byte, n *yaml.Node) ([]byte, error) {
	switch n.ShortTag() {
	case "!!null":
		return append(buf, "null"...), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return strconv.AppendBool(buf, b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		out, err := json.Marshal(f)
		if err != nil {
			// NaN and infinities have no JSON form.
			return appendString(buf, n.Value), nil
		}
		if n.ShortTag() == "!!int" {
			var i int64
			if err := n.Decode(&i); err == nil {
				return strconv.AppendInt(buf, i, 10), nil
			}
		}
		return append(buf, out...), nil
	default:
		return appendString(buf, n.Value), nil
	}
}

func appendString(buf []byte, s string) []byte {
	b, _ := json.Marshal(s)
	return append(buf, b...)
}
