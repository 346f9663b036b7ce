// Package config holds the runtime settings of the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrInvalidConfig reports a setting outside its allowed range.
var ErrInvalidConfig = errors.New("invalid config")

// Limits
const (
	MaxSearchDepth = 12
	MaxPerftDepth  = 8
)

// Config holds the engine and server settings.
type Config struct {
	SearchDepth      int    `json:"search_depth"`
	Workers          int    `json:"workers"` // 0 means GOMAXPROCS
	DataDir          string `json:"data_dir"`
	ListenAddr       string `json:"listen_addr"`
	PerftCache       bool   `json:"perft_cache"`
	PerftTableMB     int    `json:"perft_table_mb"` // in-memory table for divide; 0 disables
	TieBreakSeed     uint64 `json:"tie_break_seed"` // 0 picks one from the clock
	MaxSelfPlayPlies int    `json:"max_selfplay_plies"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		SearchDepth:      4,
		Workers:          0,
		DataDir:          "",
		ListenAddr:       ":8080",
		PerftCache:       true,
		PerftTableMB:     64,
		TieBreakSeed:     0,
		MaxSelfPlayPlies: 300,
	}
}

// Load reads a JSON file over the defaults. Keys missing from the file keep
// their default values. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every setting.
func (c Config) Validate() error {
	switch {
	case c.SearchDepth < 1 || c.SearchDepth > MaxSearchDepth:
		return fmt.Errorf("%w: search_depth %d not in 1..%d", ErrInvalidConfig, c.SearchDepth, MaxSearchDepth)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Workers)
	case c.PerftTableMB < 0:
		return fmt.Errorf("%w: perft_table_mb %d is negative", ErrInvalidConfig, c.PerftTableMB)
	case c.MaxSelfPlayPlies < 0:
		return fmt.Errorf("%w: max_selfplay_plies %d is negative", ErrInvalidConfig, c.MaxSelfPlayPlies)
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr is empty", ErrInvalidConfig)
	}
	return nil
}

// Store guards a Config shared between request handlers.
type Store struct {
	mu     sync.RWMutex
	config Config
}

// NewStore creates a Store holding cfg.
func NewStore(cfg Config) *Store {
	return &Store{config: cfg}
}

// Get returns a copy of the current config.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Update replaces the config if the new one is valid.
func (s *Store) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}
