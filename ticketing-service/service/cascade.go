package service

import (
	"context"
	"errors"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"go.uber.org/zap"
)

// CascadeCoordinator deletes parent records together with the records that
// depend on them. Every cascade runs in one store transaction in the order
// lock parent, delete dependents, delete parent.
type CascadeCoordinator struct {
	store    repository.Store
	bookings *BookingService
	logger   *zap.Logger
}

func NewCascadeCoordinator(store repository.Store, bookings *BookingService, logger *zap.Logger) *CascadeCoordinator {
	return &CascadeCoordinator{
		store:    store,
		bookings: bookings,
		logger:   logger.With(zap.String("component", "cascade_coordinator")),
	}
}

// OnDeleteUser removes the user's bookings and then the user.
func (c *CascadeCoordinator) OnDeleteUser(ctx context.Context, userID string) (*model.CascadeResult, error) {
	var result model.CascadeResult
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().LockUser(ctx, userID, repository.LockUpdate); err != nil {
			return notFoundAs(err, apperror.ErrUserNotFound)
		}

		n, err := c.bookings.WithStore(tx).DeleteAllUserBookings(ctx, userID)
		if err != nil {
			return err
		}

		if err := tx.Users().DeleteUser(ctx, userID); err != nil {
			return notFoundAs(err, apperror.ErrUserNotFound)
		}

		result = model.CascadeResult{ParentsDeleted: 1, BookingsDeleted: n}
		return nil
	})
	if err != nil {
		return nil, c.failed("user", userID, err)
	}

	c.logger.Info("user deleted",
		zap.String("user_id", userID),
		zap.Int64("bookings_deleted", result.BookingsDeleted))
	return &result, nil
}

// OnDeleteUsersByRole removes every user with role and all of their bookings.
func (c *CascadeCoordinator) OnDeleteUsersByRole(ctx context.Context, role model.Role) (*model.CascadeResult, error) {
	var result model.CascadeResult
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ids, err := tx.Users().ListUserIDsByRole(ctx, role)
		if err != nil {
			return err
		}
		ids, err = lockEach(ids, func(id string) error {
			_, err := tx.Users().LockUser(ctx, id, repository.LockUpdate)
			return err
		})
		if err != nil {
			return err
		}

		bookings, err := c.bookings.WithStore(tx).deleteBookingsOfUsers(ctx, ids)
		if err != nil {
			return err
		}
		users, err := tx.Users().DeleteUsersByIDs(ctx, ids)
		if err != nil {
			return err
		}

		result = model.CascadeResult{ParentsDeleted: users, BookingsDeleted: bookings}
		return nil
	})
	if err != nil {
		return nil, c.failed("users", string(role), err)
	}

	c.logger.Info("users deleted",
		zap.String("role", string(role)),
		zap.Int64("users_deleted", result.ParentsDeleted),
		zap.Int64("bookings_deleted", result.BookingsDeleted))
	return &result, nil
}

// OnDeleteEvent removes the event's bookings and then the event. An unknown
// event aborts the transaction with apperror.ErrEventNotFound and deletes
// nothing.
func (c *CascadeCoordinator) OnDeleteEvent(ctx context.Context, eventID string) (*model.CascadeResult, error) {
	var result model.CascadeResult
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Events().LockEvent(ctx, eventID, repository.LockUpdate); err != nil {
			return notFoundAs(err, apperror.ErrEventNotFound)
		}

		n, err := c.bookings.WithStore(tx).deleteBookingsOfEvents(ctx, []string{eventID})
		if err != nil {
			return err
		}

		if err := tx.Events().DeleteEvent(ctx, eventID); err != nil {
			return notFoundAs(err, apperror.ErrEventNotFound)
		}

		result = model.CascadeResult{ParentsDeleted: 1, BookingsDeleted: n}
		return nil
	})
	if err != nil {
		return nil, c.failed("event", eventID, err)
	}

	c.logger.Info("event deleted",
		zap.String("event_id", eventID),
		zap.Int64("bookings_deleted", result.BookingsDeleted))
	return &result, nil
}

// OnDeleteEvents removes every event matching filter with its bookings.
func (c *CascadeCoordinator) OnDeleteEvents(ctx context.Context, filter model.EventFilter) (*model.CascadeResult, error) {
	filter.Limit, filter.Offset = 0, 0

	var result model.CascadeResult
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ids, err := tx.Events().ListEventIDs(ctx, filter)
		if err != nil {
			return err
		}
		ids, err = lockEach(ids, func(id string) error {
			_, err := tx.Events().LockEvent(ctx, id, repository.LockUpdate)
			return err
		})
		if err != nil {
			return err
		}

		bookings, err := c.bookings.WithStore(tx).deleteBookingsOfEvents(ctx, ids)
		if err != nil {
			return err
		}
		events, err := tx.Events().DeleteEventsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		result = model.CascadeResult{ParentsDeleted: events, BookingsDeleted: bookings}
		return nil
	})
	if err != nil {
		return nil, c.failed("events", "filter", err)
	}

	c.logger.Info("events deleted",
		zap.Int64("events_deleted", result.ParentsDeleted),
		zap.Int64("bookings_deleted", result.BookingsDeleted))
	return &result, nil
}

// OnDeleteCategory removes one category. Events keep existing; their
// reference to the category is cleared in the same transaction.
func (c *CascadeCoordinator) OnDeleteCategory(ctx context.Context, categoryID string) (*model.CascadeResult, error) {
	var result model.CascadeResult
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Categories().GetCategoryByID(ctx, categoryID); err != nil {
			return notFoundAs(err, apperror.ErrCategoryNotFound)
		}

		detached, err := tx.Events().ClearCategory(ctx, []string{categoryID})
		if err != nil {
			return err
		}
		if err := tx.Categories().DeleteCategory(ctx, categoryID); err != nil {
			return notFoundAs(err, apperror.ErrCategoryNotFound)
		}

		result = model.CascadeResult{ParentsDeleted: 1, EventsDetached: detached}
		return nil
	})
	if err != nil {
		return nil, c.failed("category", categoryID, err)
	}

	c.logger.Info("category deleted",
		zap.String("category_id", categoryID),
		zap.Int64("events_detached", result.EventsDetached))
	return &result, nil
}

// OnDeleteCategories removes the given categories, or all of them when ids
// is nil. Unknown ids are skipped.
func (c *CascadeCoordinator) OnDeleteCategories(ctx context.Context, ids []string) (*model.CascadeResult, error) {
	var result model.CascadeResult
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		targets := ids
		if targets == nil {
			categories, err := tx.Categories().ListCategories(ctx)
			if err != nil {
				return err
			}
			targets = make([]string, 0, len(categories))
			for _, cat := range categories {
				targets = append(targets, cat.ID)
			}
		}
		targets = uniqueStrings(targets)

		detached, err := tx.Events().ClearCategory(ctx, targets)
		if err != nil {
			return err
		}
		deleted, err := tx.Categories().DeleteCategoriesByIDs(ctx, targets)
		if err != nil {
			return err
		}

		result = model.CascadeResult{ParentsDeleted: deleted, EventsDetached: detached}
		return nil
	})
	if err != nil {
		return nil, c.failed("categories", "bulk", err)
	}

	c.logger.Info("categories deleted",
		zap.Int64("categories_deleted", result.ParentsDeleted),
		zap.Int64("events_detached", result.EventsDetached))
	return &result, nil
}

func (c *CascadeCoordinator) failed(kind, id string, err error) error {
	if !errors.Is(err, apperror.ErrNotFound) {
		c.logger.Error("cascade aborted",
			zap.String("parent", kind),
			zap.String("id", id),
			zap.Error(err))
	}
	return apperror.Failed(err)
}

// lockEach locks ids one by one and drops the ones deleted in the meantime.
func lockEach(ids []string, lock func(id string) error) ([]string, error) {
	kept := ids[:0]
	for _, id := range ids {
		err := lock(id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		kept = append(kept, id)
	}
	return kept, nil
}
