package guards

import "testing"

func TestClampIntMonotone(t *testing.T) {
	if got := ClampInt(-5, 1, 10); got != 1 {
		t.Fatalf("ClampInt(-5,1,10) = %d, want 1", got)
	}
	if got := ClampInt(15, 1, 10); got != 10 {
		t.Fatalf("ClampInt(15,1,10) = %d, want 10", got)
	}
	if got := ClampInt(5, 1, 10); got != 5 {
		t.Fatalf("ClampInt(5,1,10) = %d, want 5", got)
	}
	prev := ClampInt(-100, 0, 100)
	for v := -99; v <= 200; v++ {
		cur := ClampInt(v, 0, 100)
		if cur < prev {
			t.Fatalf("ClampInt not monotone at v=%d: prev=%d cur=%d", v, prev, cur)
		}
		prev = cur
	}
}

func TestTruncateQueryByteLimit(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	got := TruncateQuery("  " + string(long) + "  ")
	if len(got) != MaxQueryLength {
		t.Fatalf("len = %d, want %d", len(got), MaxQueryLength)
	}
}

func TestTruncateQueryIsPrefixOfTrim(t *testing.T) {
	s := "  hello world  "
	got := TruncateQuery(s)
	trimmed := "hello world"
	if got != trimmed {
		t.Fatalf("got %q want %q", got, trimmed)
	}
}

func TestAdaptiveGraphCap(t *testing.T) {
	if got := AdaptiveGraphCap(10, 2000, nil); got != 200 {
		t.Fatalf("small total: got %d want 200 (floor)", got)
	}
	if got := AdaptiveGraphCap(100000, 2000, nil); got != 2000 {
		t.Fatalf("huge total: got %d want 2000 (base cap)", got)
	}
	f := 50
	if got := AdaptiveGraphCap(100, 2000, &f); got != 50 {
		t.Fatalf("custom floor: got %d want 50", got)
	}
}
