// Package dedupe suppresses duplicate Telegram deliveries. Long polling can
// re-deliver an update after a crash, and users double-tap inline buttons;
// both arrive as distinct events with the same identity.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL bounds how long an event identity is remembered.
const DefaultTTL = 10 * time.Minute

// Deduper reports whether an event identity has been seen within the TTL,
// marking it seen as a side effect.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

// Key builds a deterministic identity from the provided parts.
func Key(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// MemoryDeduper is the in-process Deduper implementation.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryDeduper{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

func (d *MemoryDeduper) Seen(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, expiry := range d.seen {
		if now.After(expiry) {
			delete(d.seen, k)
		}
	}

	if _, ok := d.seen[key]; ok {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	return false, nil
}
