package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/marmos91/bytedrop/internal/logger"
	"github.com/marmos91/bytedrop/pkg/content"
	"github.com/marmos91/bytedrop/pkg/worker"
)

// PostResponse is the JSON body of a successful POST.
type PostResponse struct {
	Key string `json:"key"`
}

// Post stores the request body and answers 201 with the new key.
//
// The pipeline, in order: read body, rate limit, media type, token
// allocation, compression decision, size check, cache insert, async save.
// The 201 precedes durability: a pending cache entry is installed before
// the save is scheduled, and the save resolves it with the record before
// the disk write, so an immediate GET for the returned key is served from
// memory.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		h.postFailed()
		writeError(w, http.StatusBadRequest, "Missing content")
		return
	}

	ip := clientIP(r)
	if h.postLimit.Check(ip) {
		h.postFailed()
		h.rateLimited("post")
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	mediaType := r.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "text/plain"
	}

	key := h.tokens.Generate()

	// Compression decision. A body the client already gzipped is stored
	// as-is. An oversized body is compressed eagerly because the size cap
	// applies to the stored form. Everything else defers compression to
	// the I/O worker.
	compressFirst := false
	switch {
	case r.Header.Get("Content-Encoding") == "gzip":
		// Already in stored form
	case len(body) > h.cfg.MaxContentLength.Int():
		body = content.Compress(body)
	default:
		compressFirst = true
	}

	if len(body) > h.cfg.MaxContentLength.Int() {
		h.postFailed()
		writeError(w, http.StatusRequestEntityTooLarge, "Content too large")
		return
	}

	expiry := time.Now().Add(h.cfg.Lifetime)

	h.access.Log(worker.AccessEvent{
		Key:              key,
		MediaType:        mediaType,
		ClientIP:         ip,
		UserAgent:        r.Header.Get("User-Agent"),
		Size:             len(body),
		CompressRequired: compressFirst,
	})

	rec := content.Record{
		Key:       key,
		MediaType: mediaType,
		Expiry:    expiry,
		Body:      body,
	}

	// Resolving the promise publishes the record to readers before the
	// write lands on disk.
	promise := h.cache.Put(key)
	save := func() {
		if err := h.store.Save(rec, compressFirst, promise.Resolve); err != nil {
			if errors.Is(err, content.ErrConflict) {
				logger.Warn("save dropped", logger.KeyContent, key, logger.KeyError, err)
			} else {
				logger.Error("save failed", logger.KeyContent, key, logger.KeyError, err)
			}
		}
	}
	if !h.pool.Submit(save) {
		// Pool is shutting down; run inline so the promise still resolves.
		save()
	}

	if h.metrics != nil {
		h.metrics.IncPost()
		h.metrics.AddStoredBytes(len(body))
	}

	setCORS(w)
	w.Header().Set("Location", key)
	w.Header().Set("Expiry", expiry.UTC().Format(http.TimeFormat))
	writeJSON(w, http.StatusCreated, PostResponse{Key: key})
}

func (h *Handler) postFailed() {
	if h.metrics != nil {
		h.metrics.IncPostFailed()
	}
}

func (h *Handler) rateLimited(scope string) {
	if h.metrics != nil {
		h.metrics.IncRateLimited(scope)
	}
}
