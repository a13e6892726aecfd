// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	"github.com/quarry-build/quarry/lib/codec"
	"github.com/quarry-build/quarry/lib/compat"
	"github.com/quarry-build/quarry/lib/invocation"
	"github.com/quarry-build/quarry/lib/propstore"
	"github.com/quarry-build/quarry/lib/registry"
)

// defaultCacheSize bounds the effective-configuration cache. Requests
// in a build loop repeat a handful of shapes; this is generous.
const defaultCacheSize = 64

// Spawner creates a fresh worker process when no live worker is
// compatible. Process mechanics (command construction, socket setup,
// readiness) live behind this interface; the pool only provides the
// startup configuration the new worker must be launched with. The
// returned entry carries the new worker's ID, PID, installation
// identity, and endpoint.
type Spawner interface {
	Spawn(ctx context.Context, req invocation.Request, config invocation.Config) (registry.Entry, error)
}

// Options configures a Pool.
type Options struct {
	// Registry tracks the live workers. Required.
	Registry *registry.Registry

	// Spawner creates workers when reuse fails. Required.
	Spawner Spawner

	// Builder assembles effective configurations. Required.
	Builder *invocation.Builder

	// Logger, when set, logs candidate evaluation and dispatch
	// decisions.
	Logger *slog.Logger

	// CacheSize overrides the effective-configuration cache size.
	CacheSize int
}

// Pool binds build requests to workers. Safe for concurrent use; the
// registry's compare-and-set transitions serialize claims per worker.
type Pool struct {
	registry *registry.Registry
	spawner  Spawner
	builder  *invocation.Builder
	logger   *slog.Logger
	cache    *lru.Cache[[32]byte, invocation.Config]

	mu     sync.Mutex
	stores map[uuid.UUID]*propstore.Store
}

// New validates options and returns a pool.
func New(options Options) (*Pool, error) {
	if options.Registry == nil || options.Spawner == nil || options.Builder == nil {
		return nil, errors.New("pool: Registry, Spawner, and Builder are required")
	}
	size := options.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[[32]byte, invocation.Config](size)
	if err != nil {
		return nil, fmt.Errorf("pool: creating config cache: %w", err)
	}
	return &Pool{
		registry: options.Registry,
		spawner:  options.Spawner,
		builder:  options.Builder,
		logger:   options.Logger,
		cache:    cache,
		stores:   make(map[uuid.UUID]*propstore.Store),
	}, nil
}

func (p *Pool) log(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

// Acquire binds the request to a worker: a compatible idle worker if
// one exists, otherwise a freshly spawned one. On reuse, the verdict's
// mutable updates are applied to the worker before the lease is
// returned, so the caller dispatches the build onto a reconciled
// worker. Errors are the request builder's (malformed sizing,
// unresolved catalog version), the spawner's, or ctx's.
func (p *Pool) Acquire(ctx context.Context, req invocation.Request) (*Lease, error) {
	effective, err := p.effectiveConfig(req)
	if err != nil {
		return nil, err
	}

	for _, candidate := range p.registry.Idle() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		verdict := compat.MatchEffective(candidate.Identity, candidate.Config, req.RequiredIdentity, effective)
		if !verdict.Compatible {
			p.log("worker incompatible", "worker", candidate.ID, "reason", verdict.Reason)
			continue
		}

		// Claim before touching the property store. A failed claim
		// means another build got there first; keep looking.
		if !p.registry.Transition(candidate.ID, registry.StateIdle, registry.StateBusy) {
			p.log("worker claimed by another build", "worker", candidate.ID)
			continue
		}

		store := p.store(candidate.ID, candidate.Config.MutableProperties)
		store.Apply(verdict.MutableUpdates)
		if err := p.registry.UpdateMutableProperties(candidate.ID, store.Snapshot()); err != nil {
			// The registry no longer reflects the store; give the
			// worker back rather than dispatch onto inconsistent
			// state.
			p.registry.Transition(candidate.ID, registry.StateBusy, registry.StateIdle)
			p.log("releasing worker after registry write failure", "worker", candidate.ID, "error", err)
			continue
		}

		p.log("worker reused", "worker", candidate.ID, "updates", len(verdict.MutableUpdates))
		entry, _ := p.registry.Get(candidate.ID)
		return p.newLease(entry, store), nil
	}

	return p.spawn(ctx, req, effective)
}

func (p *Pool) spawn(ctx context.Context, req invocation.Request, effective invocation.Config) (*Lease, error) {
	entry, err := p.spawner.Spawn(ctx, req, effective.Clone())
	if err != nil {
		return nil, fmt.Errorf("spawning worker: %w", err)
	}
	entry.State = registry.StateBusy
	entry.Config = effective.Clone()
	entry.LastActivity = time.Now()
	if err := p.registry.Add(entry); err != nil {
		return nil, fmt.Errorf("registering spawned worker: %w", err)
	}

	store := propstore.New(effective.MutableProperties)
	p.mu.Lock()
	p.stores[entry.ID] = store
	p.mu.Unlock()

	p.log("worker spawned", "worker", entry.ID, "pid", entry.PID)
	return p.newLease(entry, store), nil
}

// store returns the property store for a worker, creating one seeded
// from the registry's view for workers inherited from a previous
// orchestrator invocation.
func (p *Pool) store(id uuid.UUID, seed map[string]string) *propstore.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	if store, ok := p.stores[id]; ok {
		return store
	}
	store := propstore.New(seed)
	p.stores[id] = store
	return store
}

// effectiveConfig assembles the request's effective configuration,
// memoized by request fingerprint. Unfingerprintable requests fall
// through to plain assembly.
func (p *Pool) effectiveConfig(req invocation.Request) (invocation.Config, error) {
	key, keyErr := fingerprint(req)
	if keyErr == nil {
		if cached, ok := p.cache.Get(key); ok {
			return cached.Clone(), nil
		}
	}

	effective, err := p.builder.EffectiveConfig(req)
	if err != nil {
		return invocation.Config{}, err
	}
	if keyErr == nil {
		p.cache.Add(key, effective.Clone())
	}
	return effective, nil
}

// fingerprint hashes the request fields that determine its effective
// configuration. Deterministic CBOR makes equal requests hash equal
// regardless of map iteration order. The required identity is
// deliberately excluded: it affects candidate selection, not the
// assembled configuration.
func fingerprint(req invocation.Request) ([32]byte, error) {
	encoded, err := codec.Marshal(struct {
		Specified bool              `cbor:"specified"`
		Items     []string          `cbor:"items,omitempty"`
		Extra     map[string]string `cbor:"extra,omitempty"`
		Version   string            `cbor:"version,omitempty"`
	}{
		Specified: req.Args.Specified(),
		Items:     req.Args.Items(),
		Extra:     req.ExtraProperties,
		Version:   req.Version,
	})
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(encoded), nil
}

// ExpireIdle removes idle workers inactive for longer than maxIdle and
// returns their entries so the caller can reap the processes.
func (p *Pool) ExpireIdle(maxIdle time.Duration) ([]registry.Entry, error) {
	expired, err := p.registry.ExpireIdle(time.Now().Add(-maxIdle))
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	for _, entry := range expired {
		delete(p.stores, entry.ID)
	}
	p.mu.Unlock()
	return expired, nil
}

// Lease is exclusive access to one worker for one build. Release it
// when the build completes.
type Lease struct {
	pool  *Pool
	entry registry.Entry
	store *propstore.Store
	once  sync.Once
}

func (p *Pool) newLease(entry registry.Entry, store *propstore.Store) *Lease {
	return &Lease{pool: p, entry: entry, store: store}
}

// Worker returns the leased worker's registry entry as of acquisition.
func (l *Lease) Worker() registry.Entry {
	return l.entry
}

// Properties returns the worker's live property store.
func (l *Lease) Properties() *propstore.Store {
	return l.store
}

// Release returns the worker to the idle state, making it a reuse
// candidate for the next build. Idempotent.
func (l *Lease) Release() {
	l.once.Do(func() {
		if !l.pool.registry.Transition(l.entry.ID, registry.StateBusy, registry.StateIdle) {
			l.pool.log("release found worker not busy", "worker", l.entry.ID)
		}
	})
}
