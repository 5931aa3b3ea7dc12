package prefsync

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

// Patch is a partial record. Validate rejects values that must not be
// merged.
type Patch interface {
	Validate() error
}

// Record is a full record that can absorb its patch type.
type Record[T any, P Patch] interface {
	Apply(P) T
}

// Deps are the collaborators shared by every synchronizer of a session.
type Deps struct {
	Local  localstore.Repository
	Logger logging.Logger
}

// Binding describes one record kind.
type Binding[T Record[T, P], P Patch] struct {
	Kind     localstore.Kind
	Defaults func() T

	// Load returns the remote patch, or common.ErrorNotFound when the
	// identity has no row. Load, Save and Clear may be nil for kinds that
	// are never mirrored.
	Load  func(ctx context.Context, id models.Identity) (P, error)
	Save  func(ctx context.Context, id models.Identity, v T) error
	Clear func(ctx context.Context, id models.Identity) error

	// AfterMerge, when set, post-processes the merged value on hydrate.
	AfterMerge func(T) T

	// SameRemote, when set, reports whether two values have the same remote
	// representation. Mutations that do not change it are not mirrored.
	SameRemote func(a, b T) bool
}

// Synchronizer keeps one record kind in sync between memory, the local
// replica and the record store.
type Synchronizer[T Record[T, P], P Patch] struct {
	local  localstore.Repository
	logger logging.Logger
	b      Binding[T, P]

	mu         sync.Mutex
	current    T
	identity   models.Identity
	loading    bool
	seq        uint64
	published  uint64
	hydrateSeq uint64
	subs       map[int]func(T)
	nextSub    int

	localMu   sync.Mutex
	lastLocal uint64

	remoteMu   sync.Mutex
	lastRemote uint64

	pending sync.WaitGroup
}

// New returns a synchronizer for b that starts anonymous, loading, with defaults.
func New[T Record[T, P], P Patch](deps Deps, b Binding[T, P]) *Synchronizer[T, P] {
	l := deps.Logger
	if l == nil {
		l = logging.Nop()
	}
	return &Synchronizer[T, P]{
		local:   deps.Local,
		logger:  l.With("module", "prefsync", "kind", string(b.Kind)),
		b:       b,
		current: b.Defaults(),
		loading: true,
		subs:    map[int]func(T){},
	}
}

// Current returns the last published value.
func (s *Synchronizer[T, P]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Synchronizer[T, P]) Identity() models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Loading is true until the latest Hydrate has finished.
func (s *Synchronizer[T, P]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Subscribe registers fn to receive every published value.
func (s *Synchronizer[T, P]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Wait blocks until background remote writes have finished.
func (s *Synchronizer[T, P]) Wait() {
	s.pending.Wait()
}

func (s *Synchronizer[T, P]) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// installLocked makes v current unless a newer value is already published.
// It returns the subscribers to notify, or ok=false when v is stale.
// The caller holds s.mu.
func (s *Synchronizer[T, P]) installLocked(seq uint64, v T) (fns []func(T), ok bool) {
	if seq < s.published {
		return nil, false
	}
	s.current = v
	s.published = seq
	fns = make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns, true
}

func notify[T any](fns []func(T), v T) {
	for _, fn := range fns {
		fn(v)
	}
}

// publish installs v and notifies subscribers. It reports whether v was
// installed.
func (s *Synchronizer[T, P]) publish(seq uint64, v T) bool {
	s.mu.Lock()
	fns, ok := s.installLocked(seq, v)
	s.mu.Unlock()

	notify(fns, v)
	return ok
}

func (s *Synchronizer[T, P]) finishHydrate(seq uint64) {
	s.mu.Lock()
	if seq == s.hydrateSeq {
		s.loading = false
	}
	s.mu.Unlock()
}

func (s *Synchronizer[T, P]) superseded(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq < s.seq
}

// Hydrate loads and merges the record for id and publishes it. It returns
// an error only when ctx is done; every other failure degrades to the
// documented fallback.
func (s *Synchronizer[T, P]) Hydrate(ctx context.Context, id models.Identity) (T, error) {
	s.mu.Lock()
	prev := s.identity
	seq := s.nextSeq()
	s.hydrateSeq = seq
	s.loading = true
	if prev != id {
		s.identity = id
		s.current = s.b.Defaults()
	}
	s.mu.Unlock()
	defer s.finishHydrate(seq)

	log := s.logger.With("identity", id.String(), "seq", seq)

	if !prev.IsAnonymous() && id.IsAnonymous() {
		return s.signOut(ctx, seq, prev, log), nil
	}

	key := localstore.Key(s.b.Kind, id)
	merged := s.b.Defaults()

	// local replica
	var localPatch P
	found, err := localstore.LoadJSON(ctx, s.local, key, &localPatch)
	if err == nil && found {
		err = localPatch.Validate()
	}
	switch {
	case err != nil && ctx.Err() != nil:
		return s.Current(), ctx.Err()
	case err != nil:
		log.Warn(ctx, "local record unreadable, ignoring it", "err", err)
	case found:
		merged = merged.Apply(localPatch)
	}

	// remote replica
	remoteReadable := false
	if !id.IsAnonymous() && s.b.Load != nil {
		remotePatch, err := s.b.Load(ctx, id)
		if err == nil {
			err = remotePatch.Validate()
		}
		switch {
		case err == nil:
			remoteReadable = true
			merged = merged.Apply(remotePatch)
		case ctx.Err() != nil:
			return s.Current(), ctx.Err()
		case errors.Is(err, common.ErrorNotFound):
			remoteReadable = true
			log.Debug(ctx, "no remote row yet")
		default:
			log.Warn(ctx, "remote read failed, using local copy", "err", err)
		}
	}

	if s.b.AfterMerge != nil {
		merged = s.b.AfterMerge(merged)
	}

	if err := ctx.Err(); err != nil {
		return s.Current(), err
	}

	s.writeLocal(ctx, seq, key, merged, log)

	// An unreadable remote row is never overwritten.
	if remoteReadable && s.b.Save != nil && !s.superseded(seq) {
		s.saveRemote(ctx, seq, id, merged, log)
	}

	if !s.publish(seq, merged) {
		log.Debug(ctx, "hydrate result discarded, newer value published")
	}
	return s.Current(), nil
}

// SignOut transitions from prev to anonymous: the local copy kept for prev
// is removed, the anonymous copy is reset and defaults are published. Unlike
// Hydrate it does not depend on the synchronizer having seen prev, so a
// session dropped at startup is handled like an explicit logout.
func (s *Synchronizer[T, P]) SignOut(ctx context.Context, prev models.Identity) (T, error) {
	if prev.IsAnonymous() {
		return s.Hydrate(ctx, models.Anonymous)
	}

	s.mu.Lock()
	seq := s.nextSeq()
	s.hydrateSeq = seq
	s.loading = true
	s.identity = models.Anonymous
	s.mu.Unlock()
	defer s.finishHydrate(seq)

	if err := ctx.Err(); err != nil {
		return s.Current(), err
	}
	log := s.logger.With("identity", prev.String(), "seq", seq)
	return s.signOut(ctx, seq, prev, log), nil
}

func (s *Synchronizer[T, P]) signOut(ctx context.Context, seq uint64, prev models.Identity, log logging.Logger) T {
	d := s.b.Defaults()

	s.localMu.Lock()
	if seq >= s.lastLocal {
		s.lastLocal = seq
		if err := s.local.Remove(ctx, localstore.Key(s.b.Kind, prev)); err != nil {
			log.Warn(ctx, "failed to drop signed-in local copy", "err", err)
		}
		if err := localstore.SaveJSON(ctx, s.local, localstore.Key(s.b.Kind, models.Anonymous), d); err != nil {
			log.Warn(ctx, "failed to reset anonymous local copy", "err", err)
		}
	}
	s.localMu.Unlock()

	s.publish(seq, d)
	return s.Current()
}

// Mutate overlays p on the current value.
func (s *Synchronizer[T, P]) Mutate(ctx context.Context, p P) T {
	return s.Update(ctx, func(cur T) T { return cur.Apply(p) })
}

// Update replaces the current value with fn(current). fn runs under the
// synchronizer lock and must not call back into it.
func (s *Synchronizer[T, P]) Update(ctx context.Context, fn func(T) T) T {
	s.mu.Lock()
	seq := s.nextSeq()
	prev := s.current
	next := fn(prev)
	id := s.identity
	fns, _ := s.installLocked(seq, next)
	s.mu.Unlock()

	notify(fns, next)

	log := s.logger.With("identity", id.String(), "seq", seq)
	s.writeLocal(ctx, seq, localstore.Key(s.b.Kind, id), next, log)

	if id.IsAnonymous() || s.b.Save == nil {
		return next
	}
	if s.b.SameRemote != nil && s.b.SameRemote(prev, next) {
		return next
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.saveRemote(context.WithoutCancel(ctx), seq, id, next, log)
	}()
	return next
}

// Reset restores defaults locally and deletes the remote row.
func (s *Synchronizer[T, P]) Reset(ctx context.Context) T {
	d := s.b.Defaults()

	s.mu.Lock()
	seq := s.nextSeq()
	id := s.identity
	fns, _ := s.installLocked(seq, d)
	s.mu.Unlock()

	notify(fns, d)

	log := s.logger.With("identity", id.String(), "seq", seq)
	s.writeLocal(ctx, seq, localstore.Key(s.b.Kind, id), d, log)

	if id.IsAnonymous() || s.b.Clear == nil {
		return d
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx := context.WithoutCancel(ctx)

		s.remoteMu.Lock()
		defer s.remoteMu.Unlock()
		if seq < s.lastRemote {
			return
		}
		s.lastRemote = seq
		if err := s.b.Clear(ctx, id); err != nil {
			log.Warn(ctx, "remote reset failed", "err", err)
		}
	}()
	return d
}

func (s *Synchronizer[T, P]) writeLocal(ctx context.Context, seq uint64, key string, v T, log logging.Logger) {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	if seq < s.lastLocal {
		log.Debug(ctx, "skipping stale local write")
		return
	}
	s.lastLocal = seq

	if err := localstore.SaveJSON(ctx, s.local, key, v); err != nil {
		log.Warn(ctx, "local write failed", "err", err)
	}
}

func (s *Synchronizer[T, P]) saveRemote(ctx context.Context, seq uint64, id models.Identity, v T, log logging.Logger) {
	s.remoteMu.Lock()
	defer s.remoteMu.Unlock()

	if seq < s.lastRemote {
		log.Debug(ctx, "skipping stale remote write")
		return
	}
	s.lastRemote = seq

	if err := s.b.Save(ctx, id, v); err != nil {
		log.Warn(ctx, "remote mirror failed", "err", err)
	}
}
