// Package lead holds contact-form submissions and announces newly created ones.
//
// A Store persists leads; a Watcher streams a Created event for every insert.
// MongoStore backs both with a MongoDB collection and a change stream.
// MemoryStore does the same in process for development and tests.
package lead

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("lead not found")
	ErrDuplicate = errors.New("lead already exists")
	ErrNilLead   = errors.New("lead is nil")
	ErrWatch     = errors.New("failed to watch leads")
)

// Lead is a single inquiry submitted through the public contact form.
// Only the store writes ID and CreatedAt; nothing downstream mutates a lead.
type Lead struct {
	ID        string    `json:"id" bson:"_id"`
	FirstName string    `json:"firstName" bson:"firstName"`
	LastName  string    `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	EventType string    `json:"eventType,omitempty" bson:"eventType,omitempty"`
	EventDate string    `json:"eventDate,omitempty" bson:"eventDate,omitempty"`
	Package   string    `json:"packageName,omitempty" bson:"packageName,omitempty"`
	Message   string    `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// FullName joins the trimmed first and last names with a single space.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// Created is the "document created" event for one lead.
type Created struct {
	LeadID string
	Lead   Lead
	// Token resumes a watch right after this event. Empty when the event
	// cannot be resumed from.
	Token string
}

// Store persists leads.
type Store interface {
	// Create inserts l, assigning ID (when empty) and CreatedAt.
	Create(ctx context.Context, l *Lead) error
	Get(ctx context.Context, id string) (Lead, error)
}

// Watcher streams creation events. The channel is closed once ctx is done;
// events already in its buffer stay readable. An empty after starts from
// now, otherwise from the event following the one that carried that Token.
// Delivery is at least once: a reconnecting watcher may repeat an event.
type Watcher interface {
	Watch(ctx context.Context, after string) (<-chan Created, error)
}
