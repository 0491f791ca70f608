package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/m3rciful/stockbot/core/logger"
)

const (
	// DefaultCapacity bounds the number of concurrent conversations kept in memory.
	DefaultCapacity = 1024
	// DefaultTTL drops conversations abandoned without /cancel.
	DefaultTTL = 30 * time.Minute
)

type entry[S any] struct {
	value   S
	touched time.Time
}

// Store maps a user id to that user's conversation state.
type Store[S any] struct {
	cache *lru.Cache[int64, entry[S]]
	ttl   time.Duration
	now   func() time.Time
}

// Option customizes a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewStore builds a store holding at most capacity users. A non-positive ttl
// disables expiry.
func NewStore[S any](capacity int, ttl time.Duration, opts ...Option) (*Store[S], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.NewWithEvict(capacity, func(userID int64, _ entry[S]) {
		logger.Debug(context.Background(), "state", "state.evict",
			slog.Int64("user_id", userID),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("state cache: %w", err)
	}
	return &Store[S]{cache: cache, ttl: ttl, now: o.now}, nil
}

// Get returns the user's state. Expired entries are removed and reported as absent.
func (s *Store[S]) Get(userID int64) (S, bool) {
	var zero S
	e, ok := s.cache.Get(userID)
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && s.now().Sub(e.touched) > s.ttl {
		s.cache.Remove(userID)
		logger.Debug(context.Background(), "state", "state.expired",
			slog.Int64("user_id", userID),
		)
		return zero, false
	}
	return e.value, true
}

// Set stores the user's state and refreshes its expiry.
func (s *Store[S]) Set(userID int64, value S) {
	s.cache.Add(userID, entry[S]{value: value, touched: s.now()})
}

// Clear forgets the user's state. Clearing an absent user is a no-op.
func (s *Store[S]) Clear(userID int64) {
	s.cache.Remove(userID)
}

// size counts stored entries, expired ones included.
func (s *Store[S]) size() int {
	return s.cache.Len()
}
