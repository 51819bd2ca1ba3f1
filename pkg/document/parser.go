package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/buger/jsonparser"

	"github.com/matzehuels/jsonflow/pkg/dag"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

var (
	// ErrMalformed is returned by [Parse] when the text is not valid JSON.
	ErrMalformed = errors.New("malformed document")

	// ErrTooLarge is returned by [Parse] when the document exceeds the
	// configured depth or node limits.
	ErrTooLarge = errors.New("document too large")
)

const (
	// RootID is the node id of the document root.
	RootID = "#"

	// MaxLabelLen is the maximum label length in runes, ellipsis included.
	MaxLabelLen = 40

	// DefaultMaxDepth bounds container nesting.
	DefaultMaxDepth = 64

	// DefaultMaxNodes bounds the number of nodes in one diagram.
	DefaultMaxNodes = 5000
)

// Options limits how much of a document is turned into a graph.
// Zero fields fall back to the package defaults.
type Options struct {
	MaxDepth int
	MaxNodes int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// Valid reports whether data is a syntactically valid JSON document.
// Empty or whitespace-only text is not valid.
func Valid(data []byte) bool {
	return json.Valid(data)
}

// Parse converts JSON text into a containment graph with default limits.
func Parse(data []byte) (*dag.DAG, error) {
	return ParseWithOptions(data, Options{})
}

// ParseWithOptions converts JSON text into a containment graph.
//
// Rows equal nesting depth, with the root at row 0. No positions are
// assigned; that is the layout package's job.
func ParseWithOptions(data []byte, opts Options) (*dag.DAG, error) {
	if err := checkValid(data); err != nil {
		return nil, err
	}

	value, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, fmt.Errorf("%w: %v", ErrMalformed, err), "read document root")
	}

	p := &parser{
		g:    dag.New(nil),
		opts: opts.withDefaults(),
	}
	if err := p.walk(entry{index: -1, value: value, typ: typ}, "", RootID, "$", 0); err != nil {
		return nil, err
	}
	return p.g, nil
}

func checkValid(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errs.Wrap(errs.ErrCodeInvalidDocument, ErrMalformed, "document is empty")
	}
	if json.Valid(data) {
		return nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidDocument, fmt.Errorf("%w: %v", ErrMalformed, err), "document is not valid JSON")
	}
	return errs.Wrap(errs.ErrCodeInvalidDocument, ErrMalformed, "document is not valid JSON")
}

// entry is one child value found inside a container.
type entry struct {
	key   string // object key; empty for array elements and the root
	index int    // array index, or -1
	value []byte
	typ   jsonparser.ValueType
}

type parser struct {
	g    *dag.DAG
	opts Options
}

func (p *parser) walk(e entry, parentID, id, path string, depth int) error {
	if depth > p.opts.MaxDepth {
		return errs.Wrap(errs.ErrCodeTooLarge, ErrTooLarge, "nesting deeper than %d levels at %s", p.opts.MaxDepth, path)
	}
	if p.g.NodeCount() >= p.opts.MaxNodes {
		return errs.Wrap(errs.ErrCodeTooLarge, ErrTooLarge, "more than %d nodes", p.opts.MaxNodes)
	}

	var children []entry
	var err error
	switch e.typ {
	case jsonparser.Object:
		children, err = objectEntries(e.value)
	case jsonparser.Array:
		children, err = arrayEntries(e.value)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidDocument, fmt.Errorf("%w: %v", ErrMalformed, err), "read %s", path)
	}

	node := dag.Node{
		ID:   id,
		Row:  depth,
		Kind: kindOf(e.typ),
		Meta: dag.Metadata{
			dag.MetaPath:      path,
			dag.MetaValueType: valueType(e.typ),
		},
	}
	switch {
	case e.index >= 0:
		node.Meta[dag.MetaKey] = strconv.Itoa(e.index)
	case parentID != "":
		node.Meta[dag.MetaKey] = e.key
	}

	var scalar string
	if !node.IsContainer() {
		scalar = scalarText(e.value, e.typ)
		node.Meta[dag.MetaValue] = scalar
	}
	node.Meta[dag.MetaLabel] = label(e, parentID == "", node.Kind, len(children), scalar)

	if err := p.g.AddNode(node); err != nil {
		return fmt.Errorf("add node %s: %w", id, err)
	}
	if parentID != "" {
		if err := p.g.AddEdge(dag.Edge{From: parentID, To: id}); err != nil {
			return fmt.Errorf("add edge %s→%s: %w", parentID, id, err)
		}
	}

	seen := make(map[string]int)
	for _, c := range children {
		var childID, childPath string
		if c.index >= 0 {
			childID = id + "/" + strconv.Itoa(c.index)
			childPath = path + "[" + strconv.Itoa(c.index) + "]"
		} else {
			childID = id + "/" + escapePointer(c.key)
			childPath = path + pathSegment(c.key)
			if n := seen[c.key]; n > 0 {
				childID += "~dup" + strconv.Itoa(n)
			}
			seen[c.key]++
		}
		if err := p.walk(c, id, childID, childPath, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func objectEntries(data []byte) ([]entry, error) {
	var out []entry
	err := jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		out = append(out, entry{key: string(key), index: -1, value: value, typ: typ})
		return nil
	})
	return out, err
}

func arrayEntries(data []byte) ([]entry, error) {
	var out []entry
	var cbErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		if err != nil && cbErr == nil {
			cbErr = err
			return
		}
		out = append(out, entry{index: len(out), value: value, typ: typ})
	})
	if err == nil {
		err = cbErr
	}
	return out, err
}

func kindOf(t jsonparser.ValueType) dag.NodeKind {
	switch t {
	case jsonparser.Object:
		return dag.NodeKindObject
	case jsonparser.Array:
		return dag.NodeKindArray
	default:
		return dag.NodeKindValue
	}
}

func valueType(t jsonparser.ValueType) string {
	switch t {
	case jsonparser.Object:
		return "object"
	case jsonparser.Array:
		return "array"
	case jsonparser.String:
		return "string"
	case jsonparser.Number:
		return "number"
	case jsonparser.Boolean:
		return "boolean"
	case jsonparser.Null:
		return "null"
	default:
		return "unknown"
	}
}

// scalarText returns the display text of a leaf value. Strings are
// unescaped; everything else is shown as written.
func scalarText(value []byte, t jsonparser.ValueType) string {
	if t == jsonparser.String {
		if s, err := jsonparser.ParseString(value); err == nil {
			return s
		}
	}
	return string(value)
}

func label(e entry, root bool, kind dag.NodeKind, size int, scalar string) string {
	var name string
	switch {
	case root:
	case e.index >= 0:
		name = "[" + strconv.Itoa(e.index) + "]"
	case e.key == "":
		name = `""`
	default:
		name = e.key
	}

	var s string
	switch kind {
	case dag.NodeKindObject:
		s = joinLabel(name, " ", "{"+strconv.Itoa(size)+"}")
	case dag.NodeKindArray:
		s = joinLabel(name, " ", "["+strconv.Itoa(size)+"]")
	default:
		s = joinLabel(name, ": ", scalar)
	}
	return truncate(s, MaxLabelLen)
}

// joinLabel prefixes rest with a member name. Only the root has no name.
func joinLabel(name, sep, rest string) string {
	if name == "" {
		return rest
	}
	return name + sep + rest
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// escapePointer escapes one JSON Pointer reference token.
func escapePointer(token string) string {
	return pointerEscaper.Replace(token)
}

// pathSegment renders a key as a JSONPath step: .name for identifier-like
// keys and ["..."] otherwise.
func pathSegment(key string) string {
	if isIdent(key) {
		return "." + key
	}
	return "[" + strconv.Quote(key) + "]"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
