package cache

// ScopedKeyer prefixes every key with a namespace. Shared backends
// use it to keep projects or printers from trampling each other:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "lab-gt2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key
// the inner keyer generates. A nil inner falls back to the default.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for a resolved target list.
func (k *ScopedKeyer) LayoutKey(fileHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(fileHash, opts)
}

// SliceKey generates a prefixed key for a slicer artifact bundle.
func (k *ScopedKeyer) SliceKey(recipeHash, meshHash string, opts SliceKeyOpts) string {
	return k.prefix + k.inner.SliceKey(recipeHash, meshHash, opts)
}
