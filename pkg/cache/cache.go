// Package cache stores derived artifacts (laid-out elements, SVG snapshots)
// keyed by content hashes, so unchanged documents skip layout and graphviz.
//
// Keys come from a [Keyer]; values are opaque bytes with an optional TTL.
// [FileCache] persists entries under a directory for CLI runs, [NullCache]
// disables caching.
package cache

import (
	"context"
	"strings"
	"time"
)

// Default TTLs per artifact kind.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the settings that decide whether and how a document is
// laid out. The parse limits are part of the key so that a document cached
// under generous limits is not served under tighter ones.
type LayoutKeyOpts struct {
	Direction string `json:"direction"`
	Engine    string `json:"engine"`
	TieBreak  string `json:"tie_break"`
	Seed      uint64 `json:"seed,omitempty"`
	MaxDepth  int    `json:"max_depth"`
	MaxNodes  int    `json:"max_nodes"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey addresses laid-out elements for a document hash.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ArtifactKey addresses a rendered diagram (svg, png) for a DOT source
	// hash. The format is the key type.
	ArtifactKey(dotHash, format string) string
}

// DefaultKeyer produces "layout:<sha256>" and "<format>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

func (DefaultKeyer) ArtifactKey(dotHash, format string) string {
	return hashKey(format, dotHash)
}

// keyType is the key segment before the hash, used to label metrics.
// "layout:ab12" and "doc:json:layout:ab12" both yield "layout".
func keyType(key string) string {
	j := strings.LastIndexByte(key, ':')
	if j <= 0 {
		return "unknown"
	}
	return key[strings.LastIndexByte(key[:j], ':')+1 : j]
}
