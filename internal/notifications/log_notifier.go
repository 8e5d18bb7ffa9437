package notifications

import (
	"context"
	"log/slog"
)

type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) NotifyUserChanged(ctx context.Context, change Change) error {
	n.log.InfoContext(ctx, "notification."+string(change.Kind),
		"change_id", change.ID,
		"user_id", change.User.ID,
	)
	return nil
}
