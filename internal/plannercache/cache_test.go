package plannercache

import (
	"errors"
	"testing"
	"time"
)

func TestGetOrComputeMissThenHit(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("result"), nil
	}

	key, err := CanonicalKey("search", "epoch-1", map[string]interface{}{"query": "foo"})
	if err != nil {
		t.Fatalf("canonical key: %v", err)
	}

	val, trace, err := c.GetOrCompute(key, "epoch-1", compute)
	if err != nil {
		t.Fatalf("get or compute: %v", err)
	}
	if trace.Hit {
		t.Error("expected a miss on first call")
	}
	if string(val) != "result" {
		t.Errorf("unexpected value %q", val)
	}

	val, trace, err = c.GetOrCompute(key, "epoch-1", compute)
	if err != nil {
		t.Fatalf("get or compute: %v", err)
	}
	if !trace.Hit {
		t.Error("expected a hit on second call")
	}
	if string(val) != "result" {
		t.Errorf("unexpected value %q", val)
	}
	if calls != 1 {
		t.Errorf("expected compute to run once, ran %d times", calls)
	}
}

func TestCanonicalKeyStableAcrossMapKeyOrder(t *testing.T) {
	a, err := CanonicalKey("search", "epoch-1", map[string]interface{}{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("canonical key: %v", err)
	}
	b, err := CanonicalKey("search", "epoch-1", map[string]interface{}{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("canonical key: %v", err)
	}
	if a != b {
		t.Errorf("expected identical keys regardless of map insertion order, got %q and %q", a, b)
	}
}

func TestCanonicalKeyChangesWithVersionToken(t *testing.T) {
	a, _ := CanonicalKey("search", "epoch-1", map[string]interface{}{"q": "foo"})
	b, _ := CanonicalKey("search", "epoch-2", map[string]interface{}{"q": "foo"})
	if a == b {
		t.Error("expected different keys for different version tokens")
	}
}

func TestGetOrComputeExpiresEntries(t *testing.T) {
	c, err := New(WithTTL(5 * time.Millisecond))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	key := "k"
	if _, _, err := c.GetOrCompute(key, "v1", compute); err != nil {
		t.Fatalf("get or compute: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, _, err := c.GetOrCompute(key, "v1", compute); err != nil {
		t.Fatalf("get or compute: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a recompute after expiry, compute ran %d times", calls)
	}
}

func TestGetOrComputeEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(WithMaxEntries(2))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	compute := func(v string) func() ([]byte, error) {
		return func() ([]byte, error) { return []byte(v), nil }
	}

	if _, _, err := c.GetOrCompute("a", "v1", compute("a")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.GetOrCompute("b", "v1", compute("b")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.GetOrCompute("c", "v1", compute("c")); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 live entries after eviction, got %d", c.Len())
	}

	calls := 0
	missCompute := func() ([]byte, error) {
		calls++
		return []byte("a"), nil
	}
	if _, _, err := c.GetOrCompute("a", "v1", missCompute); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Error("expected a to have been evicted and recomputed")
	}
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	wantErr := errors.New("boom")
	_, trace, err := c.GetOrCompute("k", "v1", func() ([]byte, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("expected compute error to propagate, got %v", err)
	}
	if trace.Hit {
		t.Error("expected no hit recorded on compute error")
	}
	if c.Len() != 0 {
		t.Error("expected nothing cached after a compute error")
	}
}

func TestGetOrComputeRoundTripsLargePayloadThroughCompression(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	big := make([]byte, compressThreshold*4)
	for i := range big {
		big[i] = byte(i % 251)
	}

	if _, _, err := c.GetOrCompute("k", "v1", func() ([]byte, error) { return big, nil }); err != nil {
		t.Fatalf("get or compute: %v", err)
	}
	val, trace, err := c.GetOrCompute("k", "v1", func() ([]byte, error) { return nil, errors.New("should not recompute") })
	if err != nil {
		t.Fatalf("get or compute: %v", err)
	}
	if !trace.Hit {
		t.Fatal("expected a hit")
	}
	if len(val) != len(big) {
		t.Fatalf("expected decompressed value of length %d, got %d", len(big), len(val))
	}
	for i := range big {
		if val[i] != big[i] {
			t.Fatalf("round-tripped payload mismatch at byte %d", i)
		}
	}
}
