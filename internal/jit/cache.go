// Package jit implements the engine's tier-up handler cache: a
// per-function invocation counter and, once a function crosses the
// hot threshold, a dense vector of precomputed dispatch handlers
// covering its instruction range. This is not code generation; it
// only shortens the dispatch path for functions observed to run
// often.
//
// The cache is generic over the handler type so that it carries no
// dependency on the interpreter's own handler signature.
package jit

// HotThreshold is the invocation count at which a function becomes a
// compile candidate.
const HotThreshold = 50

// Logger receives tier-up events. A nil Logger disables logging.
type Logger interface {
	Tier(format string, args ...any)
}

// CompiledFunc is the cached handler vector for one function's
// instruction range [EntryIP, EndIP).
type CompiledFunc[H any] struct {
	FuncIndex uint32
	EntryIP   uint32
	EndIP     uint32
	Handlers  []H
}

// Contains reports whether ip falls within this function's cached range.
func (cf *CompiledFunc[H]) Contains(ip uint32) bool {
	return ip >= cf.EntryIP && ip < cf.EndIP
}

// Cache tracks per-function invocation counts and compiled entries.
type Cache[H any] struct {
	counters  []uint32
	entries   map[uint32]*CompiledFunc[H]
	log       Logger
	threshold uint32
}

// New returns a Cache sized for funcCount functions, tiering up at the
// standard HotThreshold.
func New[H any](funcCount int, log Logger) *Cache[H] {
	return NewWithThreshold[H](funcCount, log, HotThreshold)
}

// NewWithThreshold returns a Cache sized for funcCount functions that
// tiers up at threshold invocations. A threshold of 0 falls back to
// HotThreshold.
func NewWithThreshold[H any](funcCount int, log Logger, threshold uint32) *Cache[H] {
	if threshold == 0 {
		threshold = HotThreshold
	}
	return &Cache[H]{
		counters:  make([]uint32, funcCount),
		entries:   make(map[uint32]*CompiledFunc[H]),
		log:       log,
		threshold: threshold,
	}
}

// Lookup returns the compiled entry for funcIndex, if any.
func (c *Cache[H]) Lookup(funcIndex uint32) (*CompiledFunc[H], bool) {
	cf, ok := c.entries[funcIndex]
	return cf, ok
}

// Bump increments funcIndex's invocation counter and reports the new
// count together with whether it is eligible for compilation (at or
// past threshold, not already cached). It stays true on every later
// bump until an entry is cached.
func (c *Cache[H]) Bump(funcIndex uint32, funcName string) (count uint32, shouldCompile bool) {
	if int(funcIndex) >= len(c.counters) {
		return 0, false
	}
	c.counters[funcIndex]++
	count = c.counters[funcIndex]

	if count == c.threshold && c.log != nil {
		c.log.Tier("HOT func %s@%d count=%d", funcName, funcIndex, count)
	}

	_, exists := c.entries[funcIndex]
	shouldCompile = count >= c.threshold && !exists
	return count, shouldCompile
}

// Compile attempts to build a CompiledFunc for [entryIP, endIP) by
// resolving a handler for every instruction in that range via
// handlerAt. It fails softly (returns false, logs if tracing) when the
// range is malformed or any instruction has no registered handler;
// it never panics and never partially installs an entry.
func (c *Cache[H]) Compile(funcIndex, entryIP, endIP uint32, handlerAt func(ip uint32) (H, bool), funcName string) bool {
	if endIP < entryIP {
		if c.log != nil {
			c.log.Tier("compile failed")
		}
		return false
	}

	n := endIP - entryIP
	handlers := make([]H, n)
	for i := uint32(0); i < n; i++ {
		h, ok := handlerAt(entryIP + i)
		if !ok {
			if c.log != nil {
				c.log.Tier("compile failed")
			}
			return false
		}
		handlers[i] = h
	}

	c.entries[funcIndex] = &CompiledFunc[H]{
		FuncIndex: funcIndex,
		EntryIP:   entryIP,
		EndIP:     endIP,
		Handlers:  handlers,
	}

	if c.log != nil {
		c.log.Tier("JIT COMPILED func %s@%d entry=%d", funcName, funcIndex, entryIP)
	}
	return true
}
