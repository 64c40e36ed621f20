package cache

// ScopedKeyer wraps a Keyer with a prefix. Bumping the prefix makes every
// entry written under the old one unreachable, which is how incompatible
// changes to stored entries are rolled out.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
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

// OutputKey generates a prefixed output key.
func (k *ScopedKeyer) OutputKey(inputHash string, opts OutputKeyOpts) string {
	return k.prefix + k.inner.OutputKey(inputHash, opts)
}

// MarkerKey generates a prefixed marker key.
func (k *ScopedKeyer) MarkerKey(outputHash string) string {
	return k.prefix + k.inner.MarkerKey(outputHash)
}

// OriginalKey generates a prefixed original key.
func (k *ScopedKeyer) OriginalKey(outputHash string) string {
	return k.prefix + k.inner.OriginalKey(outputHash)
}
