// Package voiceprefs persists per-voice backend routing preferences, e.g.
// "morty always sounds best on openaudio". File writes are made
// crash-safe via write-temp-then-rename.
package voiceprefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/book-expert/logger"
)

// Store is a mutex-guarded, file-backed voice->backend preference map.
// Keys are always lowercased, matching the reference implementation.
type Store struct {
	mu       sync.RWMutex
	path     string
	prefs    map[string]string
	log      *logger.Logger
}

// New loads prefs from path if it exists, otherwise starts empty. A
// missing or corrupt file is not an error: it is treated as an empty
// preference set, and only a corrupt or unreadable file is logged.
func New(path string, log *logger.Logger) *Store {
	s := &Store{
		path:  path,
		prefs: make(map[string]string),
		log:   log,
	}

	s.load()

	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) && s.log != nil {
			s.log.Warn("voiceprefs: failed to read preferences file: %v", err)
		}

		return
	}

	saved := make(map[string]string)
	if err := json.Unmarshal(data, &saved); err != nil {
		if s.log != nil {
			s.log.Warn("voiceprefs: failed to parse preferences file: %v", err)
		}

		return
	}

	s.mu.Lock()
	for k, v := range saved {
		s.prefs[strings.ToLower(k)] = v
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("voiceprefs: loaded %d voice preferences", len(saved))
	}
}

// Get returns the preferred backend for voice, and whether one is set.
func (s *Store) Get(voice string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	backend, ok := s.prefs[strings.ToLower(voice)]

	return backend, ok
}

// Set records a preference and persists it to disk.
func (s *Store) Set(voice, backend string) error {
	s.mu.Lock()
	s.prefs[strings.ToLower(voice)] = backend
	snapshot := s.copyLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Remove deletes a preference, if present, and persists the change.
// Reports whether a preference existed.
func (s *Store) Remove(voice string) (bool, error) {
	key := strings.ToLower(voice)

	s.mu.Lock()
	_, existed := s.prefs[key]
	if existed {
		delete(s.prefs, key)
	}
	snapshot := s.copyLocked()
	s.mu.Unlock()

	if !existed {
		return false, nil
	}

	return true, s.persist(snapshot)
}

// All returns a defensive copy of every preference.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.copyLocked()
}

func (s *Store) copyLocked() map[string]string {
	out := make(map[string]string, len(s.prefs))
	for k, v := range s.prefs {
		out[k] = v
	}

	return out
}

func (s *Store) persist(snapshot map[string]string) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".voice_prefs-*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)

		return err
	}

	if s.log != nil {
		s.log.Info("voiceprefs: saved %d voice preferences", len(snapshot))
	}

	return nil
}
