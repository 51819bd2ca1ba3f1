package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each stored document its
// own key namespace.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "doc:json:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(docHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(dotHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(dotHash, format)
}
