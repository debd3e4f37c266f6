// Package kvstore implements the multi-store in-memory key/value engine
// (component C5): a registry of named stores, each a flat key→Record
// mapping, protected by a single lock and exposing TTL expiry, readonly
// protection and a narrow mutation API.
//
// The engine never deletes expired records on read — it only hides them.
// Physical removal is the cleanup worker's job (see internal/worker), which
// lets a snapshot taken immediately before a read still be consistent with
// what that read observed.
package kvstore

import (
	"sync"
	"time"

	"kvvault/internal/clock"
)

// Config holds the subset of server configuration the engine itself reads.
// It is changed only through UpdateConfiguration, which takes the engine
// lock like any other mutation.
type Config struct {
	StatusTTL        time.Duration
	CleanupFrequency time.Duration
	MetricsInterval  time.Duration
	BackupDir        string
	MaxBackups       int
}

// ConfigPatch carries the subset of Config fields a caller wants to change.
// A nil field leaves the corresponding Config field untouched.
type ConfigPatch struct {
	StatusTTL        *time.Duration
	CleanupFrequency *time.Duration
	MetricsInterval  *time.Duration
	BackupDir        *string
	MaxBackups       *int
}

// Patch describes a field-wise edit to an existing (or about-to-be-created,
// on upsert) record. A nil pointer field leaves that attribute untouched;
// Extras, when non-nil, is merged key-by-key into the record's existing
// Extras rather than replacing it wholesale.
type Patch struct {
	Value    *interface{}
	TTL      *time.Duration
	Readonly *bool
	Extras   map[string]interface{}
}

// Engine is the multi-store KV engine. The zero value is not usable; use
// New.
type Engine struct {
	mu     sync.Mutex
	clock  clock.Clock
	stores map[string]map[string]Record
	config Config

	// Restore, when set, is invoked explicitly by the caller (typically
	// once, at process startup) to rehydrate stores from the most recent
	// backup snapshot. The engine ships no implementation of its own — see
	// internal/backup.Restore for the reference one described in
	// spec §4.2.
	Restore func(*Engine) error
}

// New creates an empty engine. cfg.MaxBackups and the interval fields
// should already reflect validated configuration; the engine does not
// re-validate them.
func New(c clock.Clock, cfg Config) *Engine {
	return &Engine{
		clock:  c,
		stores: make(map[string]map[string]Record),
		config: cfg,
	}
}

// Clock exposes the engine's injected clock so workers scheduled alongside
// it observe the same notion of "now".
func (e *Engine) Clock() clock.Clock { return e.clock }

// CreateStore registers an empty store under name. Re-creating an existing
// store is an idempotent no-op: it returns (false, ErrAlreadyExists) rather
// than mutating anything.
func (e *Engine) CreateStore(name string) (bool, error) {
	if name == "" {
		return false, ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.stores[name]; ok {
		return false, ErrAlreadyExists
	}
	e.stores[name] = make(map[string]Record)
	return true, nil
}

// DeleteStore removes a store and every record in it. Deletion is
// immediate; there is no tombstone.
func (e *Engine) DeleteStore(name string) (bool, error) {
	if name == "" {
		return false, ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.stores[name]; !ok {
		return false, nil
	}
	delete(e.stores, name)
	return true, nil
}

// ListStores returns the names of all registered stores, in no particular
// order.
func (e *Engine) ListStores() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.stores))
	for name := range e.stores {
		names = append(names, name)
	}
	return names
}

// AddKey creates or overwrites a record. ttl == nil means "use DefaultTTL";
// a ttl of 0 means the record is expired the instant it is written.
// Overwriting an existing readonly key always fails — AddKey has no force
// override, unlike EditKey.
func (e *Engine) AddKey(store, key string, value interface{}, ttl *time.Duration, readonly bool, extras map[string]interface{}) (bool, error) {
	if store == "" {
		return false, ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.stores[store]
	if !ok {
		return false, ErrStoreMissing
	}

	if existing, ok := s[key]; ok && existing.Readonly {
		return false, ErrReadOnly
	}

	s[key] = Record{
		Value:    value,
		ExpTime:  e.clock.Now().Add(resolveTTL(ttl)),
		Readonly: readonly,
		Extras:   copyExtras(extras),
	}
	return true, nil
}

// EditKey merges patch into the record for key, upserting it when the key
// does not yet exist. A readonly record can only be edited when force is
// true.
func (e *Engine) EditKey(store, key string, patch Patch, force bool) (bool, error) {
	if store == "" {
		return false, ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.stores[store]
	if !ok {
		return false, ErrStoreMissing
	}

	existing, found := s[key]
	if !found {
		rec := Record{
			ExpTime:  e.clock.Now().Add(resolveTTL(patch.TTL)),
			Readonly: patch.Readonly != nil && *patch.Readonly,
			Extras:   copyExtras(patch.Extras),
		}
		if patch.Value != nil {
			rec.Value = *patch.Value
		}
		s[key] = rec
		return true, nil
	}

	if existing.Readonly && !force {
		return false, ErrReadOnly
	}

	if patch.Value != nil {
		existing.Value = *patch.Value
	}
	if patch.Readonly != nil {
		existing.Readonly = *patch.Readonly
	}
	if patch.TTL != nil {
		existing.ExpTime = e.clock.Now().Add(*patch.TTL)
	}
	if patch.Extras != nil {
		if existing.Extras == nil {
			existing.Extras = make(map[string]interface{}, len(patch.Extras))
		}
		for k, v := range patch.Extras {
			existing.Extras[k] = v
		}
	}
	s[key] = existing
	return true, nil
}

// DeleteKey removes key from store. It reports whether the key was present
// (expired records are still "present" for this purpose — cleanup, not
// DeleteKey, is what physically prunes expiry).
func (e *Engine) DeleteKey(store, key string) (bool, error) {
	if store == "" {
		return false, ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.stores[store]
	if !ok {
		return false, ErrStoreMissing
	}
	if _, ok := s[key]; !ok {
		return false, ErrKeyMissing
	}
	delete(s, key)
	return true, nil
}

// GetKey returns a key's value. It reports false for a missing store, a
// missing key, or a key whose exp_time has already passed — expiry is
// invisible to readers even though cleanup has not yet run.
func (e *Engine) GetKey(store, key string) (interface{}, bool) {
	rec, ok := e.GetRecord(store, key)
	if !ok {
		return nil, false
	}
	return rec.Value, true
}

// GetRecord is GetKey but returns the full record (a defensive copy).
func (e *Engine) GetRecord(store, key string) (Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.stores[store]
	if !ok {
		return Record{}, false
	}
	rec, ok := s[key]
	if !ok || rec.Expired(e.clock.Now()) {
		return Record{}, false
	}
	return rec.clone(), true
}

// GetAllKeys returns a snapshot copy of every record in store, expired or
// not — callers that need to hide expired keys should check Record.Expired
// themselves. Mutating the returned map never affects engine state.
func (e *Engine) GetAllKeys(store string) (map[string]Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.stores[store]
	if !ok {
		return nil, false
	}
	out := make(map[string]Record, len(s))
	for k, v := range s {
		out[k] = v.clone()
	}
	return out, true
}

// UpdateConfiguration merges patch into the engine's configuration.
func (e *Engine) UpdateConfiguration(patch ConfigPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if patch.StatusTTL != nil {
		e.config.StatusTTL = *patch.StatusTTL
	}
	if patch.CleanupFrequency != nil {
		e.config.CleanupFrequency = *patch.CleanupFrequency
	}
	if patch.MetricsInterval != nil {
		e.config.MetricsInterval = *patch.MetricsInterval
	}
	if patch.BackupDir != nil {
		e.config.BackupDir = *patch.BackupDir
	}
	if patch.MaxBackups != nil {
		e.config.MaxBackups = *patch.MaxBackups
	}
}

// Configuration returns a copy of the current configuration.
func (e *Engine) Configuration() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SweepExpired is the single mutating primitive the cleanup worker (C7)
// needs: under one lock acquisition, it collects a snapshot of every store
// and removes every record whose exp_time has passed in a second pass over
// the same map — no recursive locking, per the alternative design spec §9
// offers to the reentrant-lock approach.
//
// It returns, for every store that still exists afterward, a snapshot copy
// suitable for handing straight to the backup rotator.
func (e *Engine) SweepExpired() map[string]map[string]Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	snapshots := make(map[string]map[string]Record, len(e.stores))
	for name, s := range e.stores {
		var expired []string
		for k, rec := range s {
			if rec.Expired(now) {
				expired = append(expired, k)
			}
		}
		for _, k := range expired {
			delete(s, k)
		}
		snap := make(map[string]Record, len(s))
		for k, v := range s {
			snap[k] = v.clone()
		}
		snapshots[name] = snap
	}
	return snapshots
}

// InsertRaw writes rec into store/key bypassing readonly checks. It exists
// for backup restore (spec §4.2): rehydrating a snapshot must be able to
// recreate readonly records verbatim, including ones already expired —
// cleanup will sweep those on its next tick.
func (e *Engine) InsertRaw(store, key string, rec Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.stores[store]
	if !ok {
		s = make(map[string]Record)
		e.stores[store] = s
	}
	s[key] = rec
}

func resolveTTL(ttl *time.Duration) time.Duration {
	if ttl == nil {
		return DefaultTTL
	}
	return *ttl
}

func copyExtras(extras map[string]interface{}) map[string]interface{} {
	if extras == nil {
		return nil
	}
	out := make(map[string]interface{}, len(extras))
	for k, v := range extras {
		out[k] = v
	}
	return out
}
