package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func runNATS(t *testing.T) *nats.Conn {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("new nats server: %v", err)
	}

	go ns.Start()
	t.Cleanup(ns.Shutdown)

	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatalf("nats server not ready")
	}

	nc, err := Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)

	return nc
}

func TestNATSNotifier_PublishesChange(t *testing.T) {
	nc := runNATS(t)
	n := NewNATSNotifier(nc, "usersapi")

	sub, err := nc.SubscribeSync("usersapi.user.>")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	u := user.User{ID: user.NewID(), Name: "doe", Email: "doe@x.com", Country: "sweden"}
	change := NewChange(KindCreated, u)

	if err := n.NotifyUserChanged(context.Background(), change); err != nil {
		t.Fatalf("NotifyUserChanged: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("next msg: %v", err)
	}

	if msg.Subject != "usersapi.user.created" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if got := msg.Header.Get(nats.MsgIdHdr); got != change.ID {
		t.Fatalf("msg id header = %q, want %q", got, change.ID)
	}

	var got Change
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != KindCreated || got.User.ID != u.ID || got.User.Name != "doe" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestNATSNotifier_CancelledContext(t *testing.T) {
	nc := runNATS(t)
	n := NewNATSNotifier(nc, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.NotifyUserChanged(ctx, NewChange(KindDeleted, user.User{ID: user.NewID()})); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
