package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
)

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) NotifyUserChanged(ctx context.Context, change Change) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("nats down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	clock := time.Now()
	n.now = func() time.Time { return clock }

	change := NewChange(KindCreated, user.User{ID: user.NewID()})

	for i := 0; i < 2; i++ {
		if err := n.NotifyUserChanged(context.Background(), change); err == nil {
			t.Fatalf("call %d: expected inner error", i)
		}
	}

	if err := n.NotifyUserChanged(context.Background(), change); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner called %d times while open, want 2", inner.calls)
	}

	// after cooldown a trial call goes through and a success closes the circuit
	clock = clock.Add(2 * time.Minute)
	inner.err = nil

	if err := n.NotifyUserChanged(context.Background(), change); err != nil {
		t.Fatalf("half-open trial failed: %v", err)
	}
	if err := n.NotifyUserChanged(context.Background(), change); err != nil {
		t.Fatalf("closed circuit rejected call: %v", err)
	}
	if inner.calls != 4 {
		t.Fatalf("inner calls = %d, want 4", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("nats down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	clock := time.Now()
	n.now = func() time.Time { return clock }

	change := NewChange(KindDeleted, user.User{ID: user.NewID()})

	_ = n.NotifyUserChanged(context.Background(), change)

	clock = clock.Add(2 * time.Minute)
	if err := n.NotifyUserChanged(context.Background(), change); err == nil || errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected trial call to reach inner and fail, got %v", err)
	}

	if err := n.NotifyUserChanged(context.Background(), change); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit to reopen, got %v", err)
	}
}

type kindRecorder struct {
	kinds []string
	errs  []error
}

func (r *kindRecorder) ObserveNotification(kind string, err error) {
	r.kinds = append(r.kinds, kind)
	r.errs = append(r.errs, err)
}

func TestWithMetrics(t *testing.T) {
	rec := &kindRecorder{}
	n := WithMetrics(&fakeNotifier{}, rec)

	_ = n.NotifyUserChanged(context.Background(), NewChange(KindUpdated, user.User{ID: user.NewID()}))

	if len(rec.kinds) != 1 || rec.kinds[0] != "user.updated" || rec.errs[0] != nil {
		t.Fatalf("unexpected observations: %+v", rec)
	}
}
