package jit

import "testing"

func TestBumpReachesThresholdOnce(t *testing.T) {
	c := New[int](2, nil)

	var lastShouldCompile bool
	var count uint32
	for i := 0; i < HotThreshold; i++ {
		count, lastShouldCompile = c.Bump(0, "fn")
	}
	if count != HotThreshold {
		t.Fatalf("want count %d, got %d", HotThreshold, count)
	}
	if !lastShouldCompile {
		t.Fatalf("expected shouldCompile once threshold is reached")
	}
}

func TestBumpDoesNotRecompileAfterCaching(t *testing.T) {
	c := New[int](1, nil)
	for i := 0; i < HotThreshold; i++ {
		c.Bump(0, "fn")
	}
	c.Compile(0, 0, 1, func(ip uint32) (int, bool) { return 1, true }, "fn")

	_, shouldCompile := c.Bump(0, "fn")
	if shouldCompile {
		t.Fatalf("should not request recompilation once cached")
	}
}

func TestCompileFailsOnMissingHandler(t *testing.T) {
	c := New[int](1, nil)
	ok := c.Compile(0, 0, 3, func(ip uint32) (int, bool) {
		if ip == 1 {
			return 0, false
		}
		return 1, true
	}, "fn")
	if ok {
		t.Fatalf("expected compile to fail when a handler is missing")
	}
	if _, found := c.Lookup(0); found {
		t.Fatalf("a failed compile must not install a partial entry")
	}
}

func TestCompiledFuncContains(t *testing.T) {
	c := New[int](1, nil)
	c.Compile(0, 10, 15, func(ip uint32) (int, bool) { return 1, true }, "fn")
	cf, ok := c.Lookup(0)
	if !ok {
		t.Fatalf("expected a cached entry")
	}
	if !cf.Contains(10) || !cf.Contains(14) {
		t.Fatalf("range boundaries should be inclusive of entry and exclusive of end")
	}
	if cf.Contains(9) || cf.Contains(15) {
		t.Fatalf("out-of-range IPs must report false")
	}
}
