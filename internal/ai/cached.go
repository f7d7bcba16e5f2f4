package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/cache"
)

// CachedAsker answers repeated identical questions from memory for a while.
// Errors are never cached.
type CachedAsker struct {
	inner   Asker
	answers *cache.Cache[string]
}

// NewCachedAsker keeps at most maxEntries answers; zero picks the cache default.
func NewCachedAsker(inner Asker, ttl time.Duration, maxEntries int) *CachedAsker {
	return &CachedAsker{inner: inner, answers: cache.New[string](ttl, maxEntries)}
}

func (c *CachedAsker) Ask(ctx context.Context, req AskRequest) (string, error) {
	key := cacheKey(req)

	if answer, ok := c.answers.Get(key); ok {
		return answer, nil
	}

	answer, err := c.inner.Ask(ctx, req)
	if err != nil {
		return "", err
	}

	c.answers.Set(key, answer)
	return answer, nil
}

func cacheKey(req AskRequest) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(req.Question)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(req.Context)))
	return hex.EncodeToString(h.Sum(nil))
}
