package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const flushTimeout = 2 * time.Second

// NATSNotifier publishes each change as JSON on <prefix>.<kind>,
// e.g. "usersapi.user.created". The change id doubles as Nats-Msg-Id so a
// JetStream stream bound to the subjects can de-duplicate retries.
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSNotifier(nc *nats.Conn, prefix string) *NATSNotifier {
	if prefix == "" {
		prefix = "usersapi"
	}
	return &NATSNotifier{nc: nc, prefix: prefix}
}

func (n *NATSNotifier) Subject(kind Kind) string {
	return n.prefix + "." + string(kind)
}

func (n *NATSNotifier) NotifyUserChanged(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	msg := nats.NewMsg(n.Subject(change.Kind))
	msg.Data = b
	msg.Header.Set(nats.MsgIdHdr, change.ID)

	if err := n.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}

	// FlushWithContext rejects contexts without a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}

	// surfaces a dead connection now rather than on the next publish
	return n.nc.FlushWithContext(ctx)
}

func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("usersapi"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}
