// Package config loads frog.toml, the engine's optional project-level
// settings file: trace channel defaults and the two tunables that
// shape engine behavior, heap growth and tier-up threshold. A missing
// file is not an error; every field's zero value means "use the
// engine's built-in default".
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config mirrors frog.toml. Every field is optional.
type Config struct {
	Trace  bool `toml:"trace"`
	JitLog bool `toml:"jit_log"`
	GCLog  bool `toml:"gc_log"`

	HeapInitialThreshold int    `toml:"heap_initial_threshold"`
	TierUpThreshold      uint32 `toml:"tier_up_threshold"`
	ModCacheDir          string `toml:"mod_cache_dir"`
}

// Load parses a frog.toml file at path. It does not check for the
// file's existence first; callers that want a missing file to be
// silently treated as defaults should check errors.Is(err,
// os.ErrNotExist) on the returned error themselves (os.IsNotExist
// does not see through the wrapping).
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional behaves like Load but returns the zero Config, no
// error, when path does not exist.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, nil
	}
	return Load(path)
}
