// Package handlers implements the POST and GET request pipelines and the
// auxiliary endpoints.
package handlers

import (
	"time"

	"github.com/marmos91/bytedrop/internal/bytesize"
	"github.com/marmos91/bytedrop/pkg/cache"
	"github.com/marmos91/bytedrop/pkg/content"
	"github.com/marmos91/bytedrop/pkg/ratelimit"
	"github.com/marmos91/bytedrop/pkg/token"
	"github.com/marmos91/bytedrop/pkg/worker"
)

// Metrics receives request pipeline observations. A nil value disables
// collection with no overhead.
type Metrics interface {
	IncPost()
	IncPostFailed()
	IncGet()
	IncGetFailed()
	IncRateLimited(scope string)
	AddStoredBytes(n int)
}

// Config holds the pipeline settings the handlers need.
type Config struct {
	// Lifetime is how long a stored record lives.
	Lifetime time.Duration

	// MaxContentLength caps the stored (post-compression) size.
	MaxContentLength bytesize.ByteSize
}

// Handler carries the collaborators of the request pipeline. Handlers
// hold only transient references to records during a request; ownership
// stays with the cache and the store.
type Handler struct {
	cfg    Config
	store  *content.Store
	cache  *cache.Cache
	pool   *worker.Pool
	access *worker.AccessLogger
	tokens *token.Generator

	postLimit *ratelimit.Limiter
	readLimit *ratelimit.Limiter

	metrics   Metrics
	startedAt time.Time
}

// New creates the request pipeline handler. metrics may be nil.
func New(
	cfg Config,
	store *content.Store,
	c *cache.Cache,
	pool *worker.Pool,
	access *worker.AccessLogger,
	tokens *token.Generator,
	postLimit, readLimit *ratelimit.Limiter,
	metrics Metrics,
) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		cache:     c,
		pool:      pool,
		access:    access,
		tokens:    tokens,
		postLimit: postLimit,
		readLimit: readLimit,
		metrics:   metrics,
		startedAt: time.Now(),
	}
}
