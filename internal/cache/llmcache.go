package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Generation is a cached text-generation answer for one topic.
type Generation struct {
	Model   string    `json:"model"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	SavedAt time.Time `json:"saved_at"`
}

// LLMCache stores generated articles keyed by model and prompt digest.
type LLMCache struct {
	Dir         string
	StrictPerms bool
}

// KeyFrom builds a cache key from model and prompt digest.
func KeyFrom(model string, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached generation, if any. A miss is not an error.
func (c *LLMCache) Get(_ context.Context, key string) (Generation, bool, error) {
	if c == nil || c.Dir == "" {
		return Generation{}, false, errors.New("cache dir not configured")
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return Generation{}, false, nil
	}
	var g Generation
	if err := json.Unmarshal(b, &g); err != nil {
		return Generation{}, false, err
	}
	// mtime doubles as last access for age-based purging
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return g, true, nil
}

// Save writes a generation to the cache.
func (c *LLMCache) Save(_ context.Context, key string, g Generation) error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := mkdir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	if g.SavedAt.IsZero() {
		g.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return writeAtomic(c.pathFor(key), data, fileMode(c.StrictPerms))
}
