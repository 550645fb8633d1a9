package gateway

import (
	"context"
	"time"

	"github.com/aidekit/aide/internal/models"
)

// ListFilter narrows list queries. A zero filter lists everything for the
// user; ChannelID scopes shared-channel interactions, Tag filters notes.
type ListFilter struct {
	ChannelID string
	Tag       string
}

// Alerts is the facade over alert persistence. The engine treats every call
// as idempotent from its own point of view; repeated identical creates make
// duplicate alerts by design.
type Alerts interface {
	Create(ctx context.Context, alert *models.Alert) error
	ListPending(ctx context.Context, userID int64, filter ListFilter) ([]*models.Alert, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Alert, error)
	MostRecentPending(ctx context.Context, userID int64) (*models.Alert, error)
	Reschedule(ctx context.Context, id, userID int64, to time.Time) error
	MarkSent(ctx context.Context, ids []int64) error
	Delete(ctx context.Context, id, userID int64) error
}

// Tasks is the facade over task persistence.
type Tasks interface {
	Create(ctx context.Context, task *models.Task) error
	List(ctx context.Context, userID int64, filter ListFilter) ([]*models.Task, error)
	MarkResolved(ctx context.Context, id, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
}

// Notes is the facade over note persistence.
type Notes interface {
	Create(ctx context.Context, note *models.Note) error
	List(ctx context.Context, userID int64, filter ListFilter) ([]*models.Note, error)
	Search(ctx context.Context, userID int64, query string) ([]*models.Note, error)
	Delete(ctx context.Context, id, userID int64) error
}

// Images records generated images.
type Images interface {
	Create(ctx context.Context, image *models.ImageRecord) error
	List(ctx context.Context, userID int64) ([]*models.ImageRecord, error)
}

// Subscriptions looks up stored push destinations. A nil subscription with
// a nil error means the user never registered one.
type Subscriptions interface {
	Get(ctx context.Context, userID int64) (*models.PushSubscription, error)
}

// Generator turns a prompt into an image URL.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
