package postgres

import (
	"context"
	"strings"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func (r *EventRepository) CreateEvent(ctx context.Context, event *model.Event) error {
	return translateError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *EventRepository) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, translateError(err)
	}
	return &event, nil
}

func (r *EventRepository) GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	events := []model.Event{}
	if len(ids) == 0 {
		return events, nil
	}
	if err := r.db.WithContext(ctx).Where("id = ANY(?)", pq.Array(ids)).Find(&events).Error; err != nil {
		return nil, translateError(err)
	}
	return events, nil
}

// LockEvent reads the event with SELECT ... FOR SHARE or FOR UPDATE.
func (r *EventRepository) LockEvent(ctx context.Context, id string, mode repository.LockMode) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Clauses(lockingClause(mode)).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &event, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching text literally anywhere
// in the column.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func applyEventFilter(query *gorm.DB, filter model.EventFilter) *gorm.DB {
	if filter.Name != "" {
		query = query.Where(`name ILIKE ? ESCAPE '\'`, containsPattern(filter.Name))
	}
	if filter.Venue != "" {
		query = query.Where(`venue ILIKE ? ESCAPE '\'`, containsPattern(filter.Venue))
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", *filter.DateTo)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	return query
}

func (r *EventRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	events := []model.Event{}
	var total int64

	query := applyEventFilter(r.db.WithContext(ctx).Model(&model.Event{}), filter)

	// Get total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query = query.Order("date ASC, name ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, translateError(err)
	}

	return events, total, nil
}

func (r *EventRepository) ListEventIDs(ctx context.Context, filter model.EventFilter) ([]string, error) {
	ids := []string{}
	query := applyEventFilter(r.db.WithContext(ctx).Model(&model.Event{}), filter)
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event *model.Event) error {
	result := r.db.WithContext(ctx).
		Model(event).
		Select("*").
		Omit("id", "created_at").
		Updates(event)
	return affected(result)
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{}))
}

func (r *EventRepository) DeleteEventsByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id = ANY(?)", pq.Array(ids)).Delete(&model.Event{})
	return result.RowsAffected, translateError(result.Error)
}

func (r *EventRepository) ClearCategory(ctx context.Context, categoryIDs []string) (int64, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("category_id = ANY(?)", pq.Array(categoryIDs)).
		Update("category_id", gorm.Expr("NULL"))
	return result.RowsAffected, translateError(result.Error)
}
