package factory

import (
	"context"
	"sync"
	"time"

	"github.com/inercia/go-bedrock/pkg/providers/bedrock"
)

// Builder constructs a manager for a set of options
type Builder func(ctx context.Context, opts bedrock.Options) (*bedrock.Manager, error)

// cacheKey holds the resolved options that identify a manager. Options that
// are not comparable (Logger, LoadOptions) are not part of the key: callers
// that need them should build managers directly.
type cacheKey struct {
	region            string
	profile           string
	maxRetries        int
	connectTimeout    time.Duration
	readTimeout       time.Duration
	runtimeEndpoint   string
	controlEndpoint   string
	skipIdentityCheck bool
}

func keyFor(opts bedrock.Options) cacheKey {
	r := opts.Resolved()
	return cacheKey{
		region:            r.Region,
		profile:           r.Profile,
		maxRetries:        r.MaxRetries,
		connectTimeout:    r.ConnectTimeout,
		readTimeout:       r.ReadTimeout,
		runtimeEndpoint:   r.RuntimeEndpoint,
		controlEndpoint:   r.ControlEndpoint,
		skipIdentityCheck: r.SkipIdentityCheck,
	}
}

// Cache keeps one manager per distinct set of options. It is safe for
// concurrent use, and a manager is built at most once per key. Builds for
// different keys run in parallel and never delay lookups of cached managers.
type Cache struct {
	mu       sync.Mutex
	build    Builder
	managers map[cacheKey]*bedrock.Manager
	pending  map[cacheKey]*pendingBuild
}

// pendingBuild is an in-flight construction that callers with the same key wait for
type pendingBuild struct {
	done    chan struct{}
	manager *bedrock.Manager
	err     error
}

// NewCache creates an empty cache building managers with bedrock.NewManager
func NewCache() *Cache {
	return NewCacheWithBuilder(bedrock.NewManager)
}

// NewCacheWithBuilder creates an empty cache using build to construct managers
func NewCacheWithBuilder(build Builder) *Cache {
	return &Cache{
		build:    build,
		managers: make(map[cacheKey]*bedrock.Manager),
		pending:  make(map[cacheKey]*pendingBuild),
	}
}

// Get returns the manager for opts, building it on the first call. Options
// are resolved against the environment before lookup, so an empty region and
// AWS_REGION naming the same region share a manager. Callers arriving while
// the manager is being built wait for that build and share its result. Failed
// builds are not cached.
func (c *Cache) Get(ctx context.Context, opts bedrock.Options) (*bedrock.Manager, error) {
	key := keyFor(opts)

	c.mu.Lock()
	if m, ok := c.managers[key]; ok {
		c.mu.Unlock()
		return m, nil
	}
	if p, ok := c.pending[key]; ok {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.manager, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p := &pendingBuild{done: make(chan struct{})}
	c.pending[key] = p
	c.mu.Unlock()

	p.manager, p.err = c.build(ctx, opts)

	c.mu.Lock()
	// a Reset during the build drops the result
	if c.pending[key] == p {
		delete(c.pending, key)
		if p.err == nil {
			c.managers[key] = p.manager
		}
	}
	c.mu.Unlock()
	close(p.done)

	return p.manager, p.err
}

// Len returns the number of cached managers
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.managers)
}

// Reset drops every cached manager. Builds in flight complete for their
// callers but are not cached.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.managers = make(map[cacheKey]*bedrock.Manager)
	c.pending = make(map[cacheKey]*pendingBuild)
}

var defaultCache = NewCache()

// Default returns the process-wide cache
func Default() *Cache {
	return defaultCache
}

// GetManager returns the manager for opts from the default cache
func GetManager(ctx context.Context, opts bedrock.Options) (*bedrock.Manager, error) {
	return defaultCache.Get(ctx, opts)
}
