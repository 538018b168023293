package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
)

type eventRepository struct {
	s *Store
}

func eventNameTaken(d *state, name, exceptID string) bool {
	for id, e := range d.events {
		if id != exceptID && e.Name == name {
			return true
		}
	}
	return false
}

func matchesEventFilter(e model.Event, f model.EventFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Venue != "" && !strings.Contains(strings.ToLower(e.Venue), strings.ToLower(f.Venue)) {
		return false
	}
	if f.CategoryID != "" && (e.CategoryID == nil || *e.CategoryID != f.CategoryID) {
		return false
	}
	if f.DateFrom != nil && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Date.After(*f.DateTo) {
		return false
	}
	if f.MinPrice != nil && e.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && e.Price > *f.MaxPrice {
		return false
	}
	return true
}

func (r *eventRepository) filtered(d *state, f model.EventFilter) []model.Event {
	out := []model.Event{}
	for _, e := range d.events {
		if matchesEventFilter(e, f) {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Name < out[j].Name
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (r *eventRepository) CreateEvent(ctx context.Context, event *model.Event) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.events[event.ID]; ok || eventNameTaken(d, event.Name, "") {
			return repository.ErrDuplicate
		}
		r.s.stamp(&event.CreatedAt, &event.UpdatedAt)
		d.events[event.ID] = copyEvent(*event)
		return nil
	})
}

func (r *eventRepository) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	var out *model.Event
	err := r.s.read(ctx, func(d *state) error {
		e, ok := d.events[id]
		if !ok {
			return repository.ErrNotFound
		}
		e = copyEvent(e)
		out = &e
		return nil
	})
	return out, err
}

func (r *eventRepository) GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	out := []model.Event{}
	err := r.s.read(ctx, func(d *state) error {
		for id := range idSet(ids) {
			if e, ok := d.events[id]; ok {
				out = append(out, copyEvent(e))
			}
		}
		return nil
	})
	return out, err
}

// LockEvent is a plain lookup; transactions already hold the store lock.
func (r *eventRepository) LockEvent(ctx context.Context, id string, _ repository.LockMode) (*model.Event, error) {
	return r.GetEventByID(ctx, id)
}

func (r *eventRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	var (
		out   []model.Event
		total int64
	)
	err := r.s.read(ctx, func(d *state) error {
		all := r.filtered(d, filter)
		total = int64(len(all))

		start := filter.Offset
		if start > len(all) {
			start = len(all)
		}
		end := len(all)
		if filter.Limit > 0 && start+filter.Limit < end {
			end = start + filter.Limit
		}
		out = all[start:end]
		return nil
	})
	return out, total, err
}

func (r *eventRepository) ListEventIDs(ctx context.Context, filter model.EventFilter) ([]string, error) {
	ids := []string{}
	err := r.s.read(ctx, func(d *state) error {
		for _, e := range r.filtered(d, filter) {
			ids = append(ids, e.ID)
		}
		return nil
	})
	return ids, err
}

func (r *eventRepository) UpdateEvent(ctx context.Context, event *model.Event) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.events[event.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if eventNameTaken(d, event.Name, event.ID) {
			return repository.ErrDuplicate
		}
		event.CreatedAt = existing.CreatedAt
		r.s.stamp(&event.CreatedAt, &event.UpdatedAt)
		d.events[event.ID] = copyEvent(*event)
		return nil
	})
}

func (r *eventRepository) DeleteEvent(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.events[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.events, id)
		return nil
	})
}

func (r *eventRepository) DeleteEventsByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		for id := range idSet(ids) {
			if _, ok := d.events[id]; ok {
				delete(d.events, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *eventRepository) ClearCategory(ctx context.Context, categoryIDs []string) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		targets := idSet(categoryIDs)
		now := r.s.now()
		for id, e := range d.events {
			if e.CategoryID == nil {
				continue
			}
			if _, ok := targets[*e.CategoryID]; ok {
				e.CategoryID = nil
				e.UpdatedAt = now
				d.events[id] = e
				n++
			}
		}
		return nil
	})
	return n, err
}
