// Package memory implements repository.Store in process memory. It is used
// by the "memory" database driver and by tests. Transactions run against a
// copy of the data that replaces the live copy only on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
)

type state struct {
	users      map[string]model.User
	events     map[string]model.Event
	categories map[string]model.Category
	bookings   map[string]model.Booking
}

func newState() *state {
	return &state{
		users:      make(map[string]model.User),
		events:     make(map[string]model.Event),
		categories: make(map[string]model.Category),
		bookings:   make(map[string]model.Booking),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[string]model.User, len(s.users)),
		events:     make(map[string]model.Event, len(s.events)),
		categories: make(map[string]model.Category, len(s.categories)),
		bookings:   make(map[string]model.Booking, len(s.bookings)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.events {
		c.events[k] = copyEvent(v)
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	return c
}

// copyEvent detaches the CategoryID pointer from the stored value.
func copyEvent(e model.Event) model.Event {
	if e.CategoryID != nil {
		id := *e.CategoryID
		e.CategoryID = &id
	}
	return e
}

type Store struct {
	mu   *sync.RWMutex
	data *state
	inTx bool
	now  func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		mu:   &sync.RWMutex{},
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repository.UserRepository          { return &userRepository{s: s} }
func (s *Store) Events() repository.EventRepository        { return &eventRepository{s: s} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{s: s} }
func (s *Store) Bookings() repository.BookingRepository    { return &bookingRepository{s: s} }

// WithTransaction holds the write lock for the whole of fn, so transactions
// are serialised.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: s.mu, data: s.data.clone(), inTx: true, now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.data = tx.data
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) read(ctx context.Context, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
