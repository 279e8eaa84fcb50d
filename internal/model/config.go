package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all snipcheck settings
type Config struct {
	Checker  CheckerConfig            `yaml:"checker" mapstructure:"checker"`
	Cache    CacheConfig              `yaml:"cache" mapstructure:"cache"`
	Limiter  LimiterConfig            `yaml:"limiter" mapstructure:"limiter"`
	Adapters map[string]AdapterConfig `yaml:"adapters" mapstructure:"adapters"`
	Output   OutputConfig             `yaml:"output" mapstructure:"output"`
}

// CheckerConfig controls the checker run
type CheckerConfig struct {
	Workers int           `yaml:"workers" mapstructure:"workers"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-evaluation deadline
}

// CacheConfig controls the parsed-assertion cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LimiterConfig throttles interpreter process launches per language
type LimiterConfig struct {
	SpawnsPerSecond float64 `yaml:"spawns_per_second" mapstructure:"spawns_per_second"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// AdapterConfig describes how to run an external interpreter
type AdapterConfig struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args,omitempty" mapstructure:"args"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // json, yaml or text
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "snipcheck-cache")
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "snipcheck")
	}

	return &Config{
		Checker: CheckerConfig{
			Workers: runtime.NumCPU(),
			Timeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Limiter: LimiterConfig{
			SpawnsPerSecond: 20,
			Burst:           4,
		},
		Adapters: map[string]AdapterConfig{
			"go":         {Enabled: true}, // in-process, no command
			"python":     {Enabled: true, Command: "python3"},
			"javascript": {Enabled: true, Command: "node"},
			"java":       {Enabled: true, Command: "jshell", Args: []string{"-q"}},
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
