// Package plannercache implements the bounded in-memory result cache
// shared by the query planner. Entries are keyed by tool name, a
// version token supplied by the caller (typically the storage cache
// epoch), and a canonical encoding of the request payload, so a
// schema change or re-index invalidates stale entries without an
// explicit purge.
package plannercache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const (
	DefaultMaxEntries = 512
	DefaultTTL        = 15 * time.Second

	// compressThreshold is the payload size above which entries are
	// stored zstd-compressed rather than raw.
	compressThreshold = 2048
)

type entry struct {
	key        string
	value      []byte
	compressed bool
	expiresAt  time.Time
}

// Trace records timing and provenance for a single GetOrCompute call,
// suitable for attaching to a tool response so callers can see whether
// a result came from cache.
type Trace struct {
	TraceID      string  `json:"trace_id"`
	Hit          bool    `json:"hit"`
	LookupMS     float64 `json:"lookup_ms"`
	ComputeMS    float64 `json:"compute_ms"`
	TotalMS      float64 `json:"total_ms"`
	VersionToken string  `json:"version_token"`
}

// Cache is a bounded LRU with per-entry TTL. All methods are safe for
// concurrent use.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	items      map[string]*list.Element
	order      *list.List // front = most recently used

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Option configures a Cache at construction time.
type Option func(*Cache)

func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

func New(opts ...Option) (*Cache, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("plannercache: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("plannercache: new zstd decoder: %w", err)
	}

	c := &Cache{
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		encoder:    enc,
		decoder:    dec,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CanonicalKey builds a deterministic cache key from a tool name, a
// version token, and an arbitrary JSON-marshalable payload. Go's
// encoding/json already sorts map keys and emits no insignificant
// whitespace, so marshaling the payload directly produces a canonical
// encoding without a third-party JSON library.
func CanonicalKey(toolName, versionToken string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("plannercache: canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(body)
	return fmt.Sprintf("%s:%s:%s", toolName, versionToken, hex.EncodeToString(sum[:])), nil
}

// GetOrCompute returns the cached value for key if present and
// unexpired, otherwise calls compute, stores the result, and returns
// it. It evicts expired entries opportunistically and enforces
// maxEntries by evicting the least recently used entry.
func (c *Cache) GetOrCompute(key, versionToken string, compute func() ([]byte, error)) ([]byte, Trace, error) {
	start := time.Now()
	trace := Trace{TraceID: uuid.New().String(), VersionToken: versionToken}

	c.mu.Lock()
	c.evictExpiredLocked()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		if time.Now().Before(e.expiresAt) {
			c.order.MoveToFront(el)
			value := e.value
			compressed := e.compressed
			c.mu.Unlock()

			trace.Hit = true
			trace.LookupMS = msSince(start)
			trace.TotalMS = trace.LookupMS

			if !compressed {
				return value, trace, nil
			}
			raw, err := c.decoder.DecodeAll(value, nil)
			if err != nil {
				return nil, trace, fmt.Errorf("plannercache: decompress cached value: %w", err)
			}
			return raw, trace, nil
		}
		c.removeLocked(el)
	}
	c.mu.Unlock()

	trace.LookupMS = msSince(start)
	computeStart := time.Now()
	value, err := compute()
	trace.ComputeMS = msSince(computeStart)
	if err != nil {
		trace.TotalMS = msSince(start)
		return nil, trace, err
	}

	c.set(key, value)
	trace.TotalMS = msSince(start)
	return value, trace, nil
}

func (c *Cache) set(key string, value []byte) {
	stored := value
	compressed := false
	if len(value) > compressThreshold {
		stored = c.encoder.EncodeAll(value, nil)
		compressed = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).value = stored
		el.Value.(*entry).compressed = compressed
		el.Value.(*entry).expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry{
		key:        key,
		value:      stored,
		compressed: compressed,
		expiresAt:  time.Now().Add(c.ttl),
	})
	c.items[key] = el

	for c.order.Len() > c.maxEntries {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
	}
}

// Invalidate drops every cached entry. Callers use this when the
// underlying version token namespace itself changes shape rather than
// just bumping, e.g. a schema migration.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order = list.New()
}

// Len reports the current number of live (possibly expired) entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) evictExpiredLocked() {
	now := time.Now()
	for el := c.order.Back(); el != nil; {
		e := el.Value.(*entry)
		prev := el.Prev()
		if now.After(e.expiresAt) {
			c.removeLocked(el)
		}
		el = prev
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	delete(c.items, e.key)
	c.order.Remove(el)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
