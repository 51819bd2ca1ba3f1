package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Elements Serialization API
// =============================================================================

// MarshalElements encodes elements as indented JSON.
func MarshalElements(e Elements) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteElements(e, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalElements decodes JSON bytes into Elements and checks that every
// edge references a known node.
func UnmarshalElements(data []byte) (Elements, error) {
	return ReadElements(bytes.NewReader(data))
}

// WriteElements writes elements as JSON to an io.Writer.
func WriteElements(e Elements, w io.Writer) error {
	if e.Nodes == nil {
		e.Nodes = []Node{}
	}
	if e.Edges == nil {
		e.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadElements decodes elements from an io.Reader.
func ReadElements(r io.Reader) (Elements, error) {
	var e Elements
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Elements{}, fmt.Errorf("decode: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Elements{}, err
	}
	return e, nil
}

// WriteElementsFile writes elements to a JSON file.
// The file is created with 0644 permissions.
func WriteElementsFile(e Elements, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteElements(e, f)
}

// ReadElementsFile reads and validates an elements JSON file.
func ReadElementsFile(path string) (Elements, error) {
	f, err := os.Open(path)
	if err != nil {
		return Elements{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadElements(f)
}

// Validate checks that node ids are unique and non-empty and that every edge
// endpoint names a node in the set.
func (e Elements) Validate() error {
	ids := make(map[string]struct{}, len(e.Nodes))
	for _, n := range e.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, ed := range e.Edges {
		if _, ok := ids[ed.Source]; !ok {
			return fmt.Errorf("edge %s: unknown source %q", ed.ID, ed.Source)
		}
		if _, ok := ids[ed.Target]; !ok {
			return fmt.Errorf("edge %s: unknown target %q", ed.ID, ed.Target)
		}
	}
	return nil
}
