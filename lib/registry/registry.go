// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quarry-build/quarry/lib/codec"
	"github.com/quarry-build/quarry/lib/invocation"
	"github.com/quarry-build/quarry/lib/runtimeid"
)

// ErrUnknownWorker is returned for operations on a worker ID the
// registry does not track.
var ErrUnknownWorker = errors.New("unknown worker")

// State is a worker's dispatch state.
type State string

const (
	// StateIdle means the worker is running and available for reuse.
	StateIdle State = "idle"
	// StateBusy means a build is bound to the worker.
	StateBusy State = "busy"
	// StateStopping means the worker is shutting down and must not be
	// considered for reuse.
	StateStopping State = "stopping"
)

// Entry describes one live worker process.
type Entry struct {
	// ID is the worker's registry identity, assigned at spawn.
	ID uuid.UUID `cbor:"id"`

	// PID is the worker's operating system process ID.
	PID int `cbor:"pid"`

	// State is the worker's dispatch state.
	State State `cbor:"state"`

	// Identity is the runtime installation backing the worker.
	// Immutable for the worker's lifetime.
	Identity runtimeid.Identity `cbor:"identity"`

	// Config is the startup configuration the worker was launched
	// with. Only its mutable properties ever change, and only through
	// verdict application.
	Config invocation.Config `cbor:"config"`

	// Endpoint is the opaque address builds use to reach the worker.
	// The registry does not interpret it.
	Endpoint string `cbor:"endpoint,omitempty"`

	// LastActivity is when the worker last changed state. Used by
	// idle-timeout expiry.
	LastActivity time.Time `cbor:"last_activity"`
}

// fileFormat is the on-disk shape of the registry.
type fileFormat struct {
	Version int     `cbor:"version"`
	Entries []Entry `cbor:"entries"`
}

// fileVersion is bumped when the on-disk shape changes incompatibly.
const fileVersion = 1

// Registry is the persistent set of live workers. Safe for concurrent
// use.
type Registry struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]Entry
}

// Open loads the registry at path, or starts an empty one if the file
// does not exist yet. The parent directory must exist.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, entries: make(map[uuid.UUID]Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}

	var file fileFormat
	if err := codec.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding registry %s: %w", path, err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("registry %s has version %d, want %d", path, file.Version, fileVersion)
	}
	for _, entry := range file.Entries {
		r.entries[entry.ID] = entry
	}
	return r, nil
}

// SetLogger enables logging of registry mutations.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

func (r *Registry) log(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

// Add records a new worker and persists the registry. The entry's ID
// must be unique.
func (r *Registry) Add(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; ok {
		return fmt.Errorf("worker %s already registered", entry.ID)
	}
	entry.Config = entry.Config.Clone()
	r.entries[entry.ID] = entry
	if err := r.save(); err != nil {
		delete(r.entries, entry.ID)
		return err
	}
	r.log("worker registered", "worker", entry.ID, "pid", entry.PID, "state", entry.State)
	return nil
}

// Remove deletes a worker and persists the registry.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, id)
	}
	delete(r.entries, id)
	if err := r.save(); err != nil {
		r.entries[id] = entry
		return err
	}
	r.log("worker removed", "worker", id)
	return nil
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id uuid.UUID) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	entry.Config = entry.Config.Clone()
	return entry, true
}

// List returns copies of all entries, ordered by worker ID for stable
// output.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(func(Entry) bool { return true })
}

// Idle returns copies of the entries available for reuse.
func (r *Registry) Idle() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(func(e Entry) bool { return e.State == StateIdle })
}

// snapshot copies the entries matching keep. Callers hold r.mu.
func (r *Registry) snapshot(keep func(Entry) bool) []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if !keep(entry) {
			continue
		}
		entry.Config = entry.Config.Clone()
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID.String() < entries[j].ID.String()
	})
	return entries
}

// Transition moves a worker from state from to state to, persists the
// registry, and reports whether the move happened. It fails without
// side effect when the worker is unknown or not in the expected state.
// This compare-and-set is what enforces the single-assignment
// discipline: two concurrent acquisitions of the same idle worker
// cannot both succeed.
func (r *Registry) Transition(id uuid.UUID, from, to State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.State != from {
		return false
	}
	previous := entry
	entry.State = to
	entry.LastActivity = time.Now()
	r.entries[id] = entry
	if err := r.save(); err != nil {
		r.entries[id] = previous
		r.log("registry save failed, transition rolled back", "worker", id, "error", err)
		return false
	}
	r.log("worker state changed", "worker", id, "from", from, "to", to)
	return true
}

// UpdateMutableProperties replaces the recorded mutable properties of
// a worker after a verdict's updates were applied, keeping the
// registry's view consistent with the live property store.
func (r *Registry) UpdateMutableProperties(id uuid.UUID, properties map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, id)
	}
	previous := entry
	entry.Config = entry.Config.Clone()
	entry.Config.MutableProperties = make(map[string]string, len(properties))
	for key, value := range properties {
		entry.Config.MutableProperties[key] = value
	}
	r.entries[id] = entry
	if err := r.save(); err != nil {
		r.entries[id] = previous
		return err
	}
	return nil
}

// ExpireIdle removes idle workers whose last activity is older than
// cutoff and returns the removed entries so the caller can reap the
// processes. Busy and stopping workers are never expired.
func (r *Registry) ExpireIdle(cutoff time.Time) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []Entry
	for id, entry := range r.entries {
		if entry.State == StateIdle && entry.LastActivity.Before(cutoff) {
			expired = append(expired, entry)
			delete(r.entries, id)
		}
	}
	if len(expired) == 0 {
		return nil, nil
	}
	if err := r.save(); err != nil {
		for _, entry := range expired {
			r.entries[entry.ID] = entry
		}
		return nil, err
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ID.String() < expired[j].ID.String()
	})
	r.log("idle workers expired", "count", len(expired))
	return expired, nil
}

// save writes the registry atomically: encode, write to a temp file in
// the same directory, rename over the target. Callers hold r.mu.
func (r *Registry) save() error {
	file := fileFormat{Version: fileVersion}
	file.Entries = make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		file.Entries = append(file.Entries, entry)
	}
	// Deterministic entry order keeps unchanged state byte-identical
	// across rewrites.
	sort.Slice(file.Entries, func(i, j int) bool {
		return file.Entries[i].ID.String() < file.Entries[j].ID.String()
	})

	data, err := codec.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	temp, err := os.CreateTemp(dir, ".registry-*")
	if err != nil {
		return fmt.Errorf("creating temp registry file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing temp registry file: %w", err)
	}
	if err := os.Rename(tempPath, r.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing registry %s: %w", r.path, err)
	}
	return nil
}
