package cache

import "time"

// ExtractionTTL is how long extraction results stay cached.
const ExtractionTTL = 7 * 24 * time.Hour

// ExtractionKeyOpts identifies one extraction request.
type ExtractionKeyOpts struct {
	Model             string
	SystemInstruction string
	Prompt            string
	ImageHashes       []string // content hashes, in upload order
	MaxDimension      int
}

// Keyer builds cache keys.
type Keyer interface {
	// ExtractionKey returns the key for an extraction result. Any change to
	// the model, instruction, prompt, image content or image order yields a
	// different key.
	ExtractionKey(opts ExtractionKeyOpts) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ExtractionKey implements [Keyer].
func (DefaultKeyer) ExtractionKey(opts ExtractionKeyOpts) string {
	return hashKey("extract", opts.Model, Hash([]byte(opts.SystemInstruction)), opts.Prompt, opts.ImageHashes, opts.MaxDimension)
}

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one backend without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ExtractionKey generates a prefixed extraction key.
func (k *ScopedKeyer) ExtractionKey(opts ExtractionKeyOpts) string {
	return k.prefix + k.inner.ExtractionKey(opts)
}
