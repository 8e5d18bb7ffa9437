package notifications

import (
	"context"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/google/uuid"
)

type Kind string

const (
	KindCreated Kind = "user.created"
	KindUpdated Kind = "user.updated"
	KindDeleted Kind = "user.deleted"
)

// Change describes a committed write to a user. For deletes only User.ID is set.
type Change struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	User       user.User `json:"user"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewChange(kind Kind, u user.User) Change {
	return Change{
		ID:         uuid.NewString(),
		Kind:       kind,
		User:       u,
		OccurredAt: time.Now().UTC(),
	}
}

type Notifier interface {
	NotifyUserChanged(ctx context.Context, change Change) error
}

type Observer interface {
	ObserveNotification(kind string, err error)
}

type instrumented struct {
	inner   Notifier
	metrics Observer
}

// WithMetrics reports every notification outcome to metrics.
func WithMetrics(inner Notifier, metrics Observer) Notifier {
	return &instrumented{inner: inner, metrics: metrics}
}

func (n *instrumented) NotifyUserChanged(ctx context.Context, change Change) error {
	err := n.inner.NotifyUserChanged(ctx, change)
	n.metrics.ObserveNotification(string(change.Kind), err)
	return err
}
