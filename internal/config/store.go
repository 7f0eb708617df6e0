package config

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Store holds the active configuration and swaps it on reload. A reload that
// fails to read, parse or validate leaves the active configuration in place.
type Store struct {
	path string

	mu      sync.RWMutex
	current *Config
	modTime time.Time
}

// NewStore loads the file at path and returns a store for it.
func NewStore(path string) (*Store, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, current: cfg}
	if info, err := os.Stat(path); err == nil {
		s.modTime = info.ModTime()
	}
	return s, nil
}

// NewStaticStore returns a store that is not backed by a file.
func NewStaticStore(cfg *Config) *Store {
	return &Store{current: cfg}
}

// Current returns the active configuration. Callers must not modify it.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Path returns the backing file, or "" for a static store.
func (s *Store) Path() string {
	return s.path
}

// Update validates cfg and makes it active.
func (s *Store) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

// Reload re-reads the backing file.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("config store has no backing file")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	cfg, err := LoadConfig(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.modTime = info.ModTime()
	s.mu.Unlock()
	return nil
}

// ReloadIfChanged reloads when the file's modification time moved.
// It reports whether a new configuration became active.
func (s *Store) ReloadIfChanged() (bool, error) {
	if s.path == "" {
		return false, nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	s.mu.RLock()
	unchanged := info.ModTime().Equal(s.modTime)
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	cfg, err := LoadConfig(s.path)
	if err != nil {
		// Remember the bad version so it is reported once, not every cycle.
		s.mu.Lock()
		s.modTime = info.ModTime()
		s.mu.Unlock()
		return false, err
	}
	s.mu.Lock()
	s.current = cfg
	s.modTime = info.ModTime()
	s.mu.Unlock()
	return true, nil
}
