package quiz

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"PerfumeBot/model"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// Locker provides mutual exclusion across processes that serve the same
// conversations.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

const (
	defaultLockTTL = 30 * time.Second
	unlockTimeout  = 5 * time.Second
)

// lockEntry is reference counted so unused locks are dropped from the map.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Sessions maps conversation ids to their state and serializes access to
// each conversation. Different conversations never share a lock.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]*model.ConversationState
	locks  map[int64]*lockEntry

	locker  Locker
	lockTTL time.Duration
	logger  zerolog.Logger
}

type SessionsOption func(*Sessions)

// WithLocker adds a distributed lock around every conversation update.
func WithLocker(locker Locker, ttl time.Duration) SessionsOption {
	return func(s *Sessions) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithSessionsLogger(logger zerolog.Logger) SessionsOption {
	return func(s *Sessions) {
		s.logger = logger
	}
}

func NewSessions(opts ...SessionsOption) *Sessions {
	s := &Sessions{
		states:  make(map[int64]*model.ConversationState),
		locks:   make(map[int64]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sessions) acquire(id int64) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.locks[id]
	if !ok {
		entry = &lockEntry{}
		s.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (s *Sessions) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, id)
	}
}

// get returns the state for id, creating an idle one when absent.
func (s *Sessions) get(id int64) *model.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok {
		st = &model.ConversationState{Phase: model.PhaseIdle}
		s.states[id] = st
	}
	return st
}

// delete drops the state of a conversation that holds no survey data.
func (s *Sessions) delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
}

// Snapshot returns a copy of the conversation state. Unknown conversations
// are idle.
func (s *Sessions) Snapshot(id int64) model.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok {
		return model.ConversationState{Phase: model.PhaseIdle}
	}
	return st.Snapshot()
}

// Len reports the number of tracked conversations.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// WithState runs fn while holding the conversation's lock. fn may mutate
// the state; it is never called concurrently for the same id. A state left
// idle or cancelled is discarded once fn returns.
func (s *Sessions) WithState(ctx context.Context, id int64, fn func(ctx context.Context, st *model.ConversationState) error) error {
	entry := s.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(id)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, strconv.FormatInt(id, 10), s.lockTTL)
		if err != nil {
			return fmt.Errorf("lock conversation %d: %w", id, err)
		}
		defer func() {
			// the caller's ctx may already be cancelled; the lock must still go
			unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
			defer cancel()
			if err := unlock(unlockCtx); err != nil {
				s.logger.Warn().Err(err).Int64("conversation_id", id).Msg("release distributed lock, will expire via TTL")
			}
		}()
	}

	st := s.get(id)
	defer func() {
		if st.Phase == model.PhaseIdle || st.Phase == model.PhaseCancelled {
			s.delete(id)
		}
	}()
	return fn(ctx, st)
}
