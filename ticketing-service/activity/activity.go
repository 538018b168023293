// Package activity describes the after-the-fact records of mutations that
// the API publishes for the activity service.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	BookingCreated     Type = "booking.created"
	BookingUpdated     Type = "booking.updated"
	BookingDeleted     Type = "booking.deleted"
	UserBookingsPurged Type = "bookings.user_purged"
	BookingsPurged     Type = "bookings.purged"
	UserDeleted        Type = "user.deleted"
	UsersPurged        Type = "users.purged"
	EventDeleted       Type = "event.deleted"
	EventsPurged       Type = "events.purged"
	CategoryDeleted    Type = "category.deleted"
	CategoriesPurged   Type = "categories.purged"
)

// Message is the JSON payload written to the activity topic. ResourceID is
// also used as the message key.
type Message struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	ResourceID string          `json:"resource_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewMessage builds a message; data is marshalled as JSON and may be nil.
func NewMessage(t Type, resourceID, actorID string, data interface{}) (Message, error) {
	msg := Message{
		ID:         uuid.NewString(),
		Type:       t,
		ResourceID: resourceID,
		ActorID:    actorID,
		Timestamp:  time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Message{}, err
		}
		msg.Data = raw
	}
	return msg, nil
}

// Publisher delivers activity messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Noop drops every message; it is used when Kafka is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }

func (Noop) Close() error { return nil }
