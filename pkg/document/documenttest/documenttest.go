// Package documenttest builds JSON documents from plain integer streams so
// property tests can generate arbitrary nested documents with simple
// generators.
package documenttest

import (
	"bytes"
	"strconv"
)

// Keys is the pool object keys are drawn from. It includes keys that need
// JSON Pointer escaping and a repeated entry to exercise duplicate keys.
var Keys = []string{"a", "b", "name", "x/y", "t~1", "", "a", "ünï"}

const (
	maxDepth = 4
	maxNodes = 60
)

type cursor struct {
	vals []int
	i    int
}

func (c *cursor) next() int {
	if len(c.vals) == 0 {
		c.i++
		return c.i
	}
	v := c.vals[c.i%len(c.vals)]
	c.i++
	if v < 0 {
		v = -v
	}
	return v
}

// Build returns a valid JSON document shaped by the two integer streams.
// shape picks value kinds and container sizes, keys picks object keys from
// [Keys]. The same inputs always produce the same document.
func Build(shape, keys []int) []byte {
	var buf bytes.Buffer
	b := &builder{shape: &cursor{vals: shape}, keys: &cursor{vals: keys}, buf: &buf}
	b.value(0)
	return buf.Bytes()
}

type builder struct {
	shape *cursor
	keys  *cursor
	buf   *bytes.Buffer
	nodes int
}

func (b *builder) value(depth int) {
	b.nodes++
	kind := b.shape.next() % 6
	if depth >= maxDepth || b.nodes >= maxNodes {
		kind %= 4
	}
	switch kind {
	case 0:
		b.buf.WriteString(strconv.Itoa(b.shape.next() - 3))
	case 1:
		b.buf.WriteString(strconv.Quote("s" + strconv.Itoa(b.shape.next())))
	case 2:
		b.buf.WriteString(strconv.FormatBool(b.shape.next()%2 == 0))
	case 3:
		b.buf.WriteString("null")
	case 4:
		n := b.shape.next() % 4
		b.buf.WriteByte('{')
		for i := 0; i < n; i++ {
			if i > 0 {
				b.buf.WriteByte(',')
			}
			b.buf.WriteString(strconv.Quote(Keys[b.keys.next()%len(Keys)]))
			b.buf.WriteByte(':')
			b.value(depth + 1)
		}
		b.buf.WriteByte('}')
	case 5:
		n := b.shape.next() % 4
		b.buf.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				b.buf.WriteByte(',')
			}
			b.value(depth + 1)
		}
		b.buf.WriteByte(']')
	}
}
