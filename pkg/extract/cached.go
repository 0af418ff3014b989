package extract

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokendeck/pkg/cache"
	"github.com/matzehuels/tokendeck/pkg/imageset"
	pkgio "github.com/matzehuels/tokendeck/pkg/io"
	"github.com/matzehuels/tokendeck/pkg/layout"
	"github.com/matzehuels/tokendeck/pkg/observability"
)

const cacheKeyType = "extract"

// Refresher is implemented by extractors that can skip their cache.
type Refresher interface {
	// Refreshing returns a copy that ignores cached results but still
	// stores new ones.
	Refreshing() Extractor
}

// Cached serves repeated extractions of identical inputs from a cache.
type Cached struct {
	inner   Extractor
	cache   cache.Cache
	keyer   cache.Keyer
	base    cache.ExtractionKeyOpts
	ttl     time.Duration
	refresh bool
	logger  *log.Logger
}

// CachedOption configures a [Cached] extractor.
type CachedOption func(*Cached)

// WithTTL sets how long results stay cached (default [cache.ExtractionTTL]).
// Non-positive values keep the default.
func WithTTL(d time.Duration) CachedOption {
	return func(c *Cached) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// NewCached wraps inner. base carries the model, instruction, prompt and
// downscale setting; image hashes are filled in per call. A nil cache
// disables caching and a nil keyer means [cache.DefaultKeyer].
func NewCached(inner Extractor, c cache.Cache, keyer cache.Keyer, base cache.ExtractionKeyOpts, logger *log.Logger, opts ...CachedOption) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if base.Prompt == "" {
		base.Prompt = Prompt
	}
	cc := &Cached{inner: inner, cache: c, keyer: keyer, base: base, ttl: cache.ExtractionTTL, logger: logger}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// Refreshing implements [Refresher].
func (c *Cached) Refreshing() Extractor {
	cp := *c
	cp.refresh = true
	return &cp
}

// Key returns the cache key for images.
func (c *Cached) Key(images []imageset.Image) string {
	opts := c.base
	opts.ImageHashes = make([]string, len(images))
	for i, img := range images {
		opts.ImageHashes[i] = cache.Hash(img.Data)
	}
	return c.keyer.ExtractionKey(opts)
}

// Extract returns cached groups when available and otherwise delegates to
// the wrapped extractor. Cache failures are logged and treated as misses.
func (c *Cached) Extract(ctx context.Context, images []imageset.Image) ([]layout.TokenGroup, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	hooks := observability.Cache()
	key := c.Key(images)

	if !c.refresh {
		data, hit, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("cache read failed", "err", err)
		case hit:
			groups, _, err := pkgio.DecodeGroups(data)
			if err == nil {
				hooks.OnCacheHit(ctx, cacheKeyType)
				c.logger.Info("using cached extraction", "groups", len(groups))
				return groups, nil
			}
			c.logger.Debug("discarding unreadable cache entry", "err", err)
		}
		hooks.OnCacheMiss(ctx, cacheKeyType)
	}

	groups, err := c.inner.Extract(ctx, images)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pkgio.WriteGroups(groups, &buf); err == nil {
		if err := c.cache.Set(ctx, key, buf.Bytes(), c.ttl); err != nil {
			c.logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, buf.Len())
		}
	}
	return groups, nil
}
