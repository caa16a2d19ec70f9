// Package modcache persists the outcome of a module's structural
// validation pass, keyed by the SHA-256 of its raw bytes, so that
// repeatedly loading the same unchanged *.frogc file does not pay for
// re-validation every run. Modeled on the on-disk content-hash cache
// used by the surge driver's dependency cache.
package modcache

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// entry is the on-disk payload for one cached hash.
type entry struct {
	Validated bool `msgpack:"validated"`
}

// Store is a directory-backed cache of validated module hashes. The
// zero value is not usable; construct with Open.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open returns a Store rooted at dir, creating it if necessary. A
// failure here is never fatal to the caller: loader treats a nil Store
// the same as a disabled cache.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(hash [32]byte) string {
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".cache")
}

// HasValidated reports whether hash was previously recorded as having
// passed structural validation. Any I/O or decode error is treated as
// a cache miss.
func (s *Store) HasValidated(hash [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.pathFor(hash))
	if err != nil {
		return false
	}
	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return false
	}
	return e.Validated
}

// MarkValidated records that hash passed structural validation. A
// failure to persist is ignored by design: the cache is an
// optimization, never a correctness dependency.
func (s *Store) MarkValidated(hash [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := msgpack.Marshal(entry{Validated: true})
	if err != nil {
		return
	}
	_ = os.WriteFile(s.pathFor(hash), raw, 0o644)
}
