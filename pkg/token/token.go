// Package token generates the short opaque keys handed out by POST.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// alphabet is the 62-character set keys are drawn from.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrLengthTooShort is returned when a generator is configured with a key
// length below the minimum of 2.
var ErrLengthTooShort = errors.New("token length must be at least 2")

// Generator produces fresh keys from a cryptographically strong random
// source. It performs no uniqueness check: collisions are caught by the
// content store's exclusive-create on save.
//
// Generator is safe for concurrent use.
type Generator struct {
	length int
}

// NewGenerator creates a Generator emitting keys of the given length.
// Lengths below 2 are rejected.
func NewGenerator(length int) (*Generator, error) {
	if length < 2 {
		return nil, fmt.Errorf("invalid key length %d: %w", length, ErrLengthTooShort)
	}
	return &Generator{length: length}, nil
}

// Length returns the configured key length.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a fresh key drawn uniformly from [A-Za-z0-9].
func (g *Generator) Generate() string {
	// Rejection sampling keeps the distribution uniform: 248 is the largest
	// multiple of 62 below 256, so bytes >= 248 are discarded instead of
	// folded onto the low characters.
	const limit = 248

	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length)
	for len(out) < g.length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand reading from the OS source does not fail on any
			// supported platform; treat it as a programming error.
			panic(fmt.Sprintf("token: reading random source: %v", err))
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out)
}
