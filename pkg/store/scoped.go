package store

import "strings"

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend. [Config.Keyer] returns one when the store config sets a
// prefix.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "gallery:")
//	keyer.PresetKey("spiral") // "gallery:preset:spiral"
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

// PresetKey generates a prefixed preset key.
func (k *ScopedKeyer) PresetKey(name string) string {
	return k.prefix + k.inner.PresetKey(name)
}

// RunKey generates a prefixed run key.
func (k *ScopedKeyer) RunKey(opts RunKeyOpts) string {
	return k.prefix + k.inner.RunKey(opts)
}

// PresetName strips the scope and the preset prefix.
func (k *ScopedKeyer) PresetName(key string) string {
	return k.inner.PresetName(strings.TrimPrefix(key, k.prefix))
}

// PresetPrefix returns the scoped preset prefix.
func (k *ScopedKeyer) PresetPrefix() string {
	return k.prefix + k.inner.PresetPrefix()
}
