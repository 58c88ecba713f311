package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "adjpack:")
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

// CompressKey generates a prefixed key for compress results.
func (k *ScopedKeyer) CompressKey(inputHash string, opts CompressKeyOpts) string {
	return k.prefix + k.inner.CompressKey(inputHash, opts)
}

// DecompressKey generates a prefixed key for decompress results.
func (k *ScopedKeyer) DecompressKey(inputHash string, opts DecompressKeyOpts) string {
	return k.prefix + k.inner.DecompressKey(inputHash, opts)
}
