// Package settings holds the recorder preferences: a typed registry, the
// cross-field consistency rules, and a Store that writes every change through
// to a persistence backend and notifies subscribers.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	apperrors "recprefs/internal/errors"
)

// Change describes one setting whose value changed in a mutation
type Change struct {
	Name Name
	Old  any
	New  any
	// Cause is the setting the caller changed; it differs from Name for cascaded changes
	Cause Name
}

// Callback receives changes synchronously after they are committed
type Callback func(Change)

// Store is the in-memory authority for preferences
type Store struct {
	mu      sync.RWMutex
	values  map[Name]any
	persist Persistence
	saveDir string
	logger  *slog.Logger

	subMu  sync.Mutex
	subs   map[Name]map[uint64]Callback
	nextID uint64
}

// NewStore creates a store holding defaults. persist may be nil for a memory-only store.
func NewStore(persist Persistence, defaults Defaults, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	values := make(map[Name]any, len(registry))
	for _, def := range registry {
		values[def.Name] = cloneValue(def.Default)
	}
	return &Store{
		values:  values,
		persist: persist,
		saveDir: resolveSaveDir(defaults.SaveDirectory),
		logger:  logger,
		subs:    make(map[Name]map[uint64]Callback),
	}
}

func resolveSaveDir(dir string) string {
	if dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "recordings")
	}
	return filepath.Join(home, "Desktop")
}

// Load replaces in-memory state with the persisted values and repairs any
// inconsistency between them. Entries that cannot be decoded are skipped.
func (s *Store) Load() error {
	if s.persist == nil {
		return nil
	}
	raw, err := s.persist.LoadAll()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, data := range raw {
		def, ok := byName[Name(key)]
		if !ok {
			s.logger.Warn("ignoring unknown persisted setting", "name", key)
			continue
		}
		v, err := decodeValue(*def, data)
		if err != nil {
			s.logger.Warn("ignoring undecodable persisted setting", "name", key, "error", err)
			continue
		}
		s.values[def.Name] = v
	}

	t := newTxn(s.values, "", opLoad)
	normalize(t)
	changes := s.commit(t)
	for _, c := range changes {
		s.logger.Info("repaired persisted setting", "name", c.Name, "old", c.Old, "new", c.New)
	}
	if err := s.writeThrough(t); err != nil {
		s.logger.Warn("failed to save repaired settings", "error", err)
	}

	s.logger.Debug("settings loaded", "persisted", len(raw))
	return nil
}

// Close releases the persistence backend
func (s *Store) Close() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Close()
}

// Get returns the current value of a setting, or nil for names that are not registered
func (s *Store) Get(name Name) any {
	if _, ok := Lookup(name); !ok {
		return nil
	}
	s.mu.RLock()
	v := s.values[name]
	s.mu.RUnlock()

	if name == KeySaveDirectory {
		return s.resolvePath(v)
	}
	return cloneValue(v)
}

func (s *Store) resolvePath(v any) string {
	if p, _ := v.(string); p != "" {
		return p
	}
	return s.saveDir
}

// Snapshot copies every user-visible setting
func (s *Store) Snapshot() map[Name]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Name]any, len(s.values))
	for _, def := range registry {
		if def.Internal {
			continue
		}
		out[def.Name] = cloneValue(s.values[def.Name])
	}
	out[KeySaveDirectory] = s.resolvePath(out[KeySaveDirectory])
	return out
}

// Set validates and applies a value, then runs the consistency rules it triggers.
// A persistence failure is returned as a warning; the change stays applied.
func (s *Store) Set(name Name, value any) error {
	_, err := s.SetChanges(name, value)
	return err
}

// SetChanges is Set returning the committed changes, direct field first.
// The changes are those of this call only, not of concurrent mutations.
func (s *Store) SetChanges(name Name, value any) ([]Change, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, unknown(name)
	}
	v, err := def.Coerce(value)
	if err != nil {
		return nil, err
	}
	return s.apply(name, opSet, func(any) (any, error) { return v, nil })
}

// Update applies fn to the current value of a setting and stores the result.
// The read and the write happen under one lock, so no other mutation can
// interleave. fn must not call back into the store.
func (s *Store) Update(name Name, fn func(current any) (any, error)) error {
	def, ok := Lookup(name)
	if !ok {
		return unknown(name)
	}
	_, err := s.apply(name, opSet, func(current any) (any, error) {
		next, err := fn(cloneValue(current))
		if err != nil {
			return nil, err
		}
		return def.Coerce(next)
	})
	return err
}

// Reset restores the default of a setting and re-runs its rules. A setting pinned
// by another one (encoder while recording with alpha) keeps its pinned value.
func (s *Store) Reset(name Name) error {
	_, err := s.ResetChanges(name)
	return err
}

// ResetChanges is Reset returning the committed changes
func (s *Store) ResetChanges(name Name) ([]Change, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, unknown(name)
	}
	return s.apply(name, opReset, func(any) (any, error) { return cloneValue(def.Default), nil })
}

// apply computes the new value of name from its current one and commits it
// together with the rule writes it triggers
func (s *Store) apply(name Name, o op, value func(current any) (any, error)) ([]Change, error) {
	s.mu.Lock()

	v, err := value(s.values[name])
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	t := newTxn(s.values, name, o)
	pinned := false
	if g := guards[name]; g != nil {
		if err := g(t, v); err != nil {
			if o == opSet {
				s.mu.Unlock()
				return nil, err
			}
			pinned = true
			s.logger.Debug("reset kept pinned setting", "name", name, "reason", err)
			resetPinned(t, name)
		}
	}
	if !pinned {
		t.put(name, v)
		runRules(t)
	}

	changes := s.commit(t)
	werr := s.writeThrough(t)

	s.mu.Unlock()

	s.notify(name, changes)
	return changes, werr
}

// commit applies staged values and returns the changes, direct field first.
// Callers hold s.mu.
func (s *Store) commit(t *txn) []Change {
	var changes []Change
	for _, name := range t.order {
		if name != t.cause && !t.changed(name) {
			continue
		}
		c := Change{Name: name, Old: s.values[name], New: t.staged[name], Cause: t.cause}
		s.values[name] = t.staged[name]
		if name == KeySaveDirectory {
			c.Old, c.New = s.resolvePath(c.Old), s.resolvePath(c.New)
		}
		changes = append(changes, c)
	}
	return changes
}

// writeThrough persists every staged value. Callers hold s.mu.
func (s *Store) writeThrough(t *txn) error {
	if s.persist == nil || len(t.order) == 0 {
		return nil
	}

	batch := make(map[string][]byte, len(t.order))
	for _, name := range t.order {
		data, err := encodeValue(*byName[name], t.staged[name])
		if err != nil {
			return s.writeFailed(err)
		}
		batch[string(name)] = data
	}

	if bs, ok := s.persist.(BatchSaver); ok {
		if err := bs.SaveAll(batch); err != nil {
			return s.writeFailed(err)
		}
		return nil
	}

	var errs []error
	for _, name := range t.order {
		if err := s.persist.Save(string(name), batch[string(name)]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return s.writeFailed(err)
	}
	return nil
}

func (s *Store) writeFailed(err error) error {
	s.logger.Warn("setting applied but not persisted", "error", err)
	return fmt.Errorf("%w: %w", apperrors.ErrPersistenceWriteFailed, err)
}
