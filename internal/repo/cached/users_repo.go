package cached

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/geocoder89/usersapi/internal/cache"
	"github.com/geocoder89/usersapi/internal/domain/user"
)

type Repository interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type Observer interface {
	ObserveCache(result string)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(string) {}

// UsersRepo is a read-through cache in front of another repository. Only
// single-user reads are cached; writes invalidate the affected key. Cache
// failures degrade to the inner repository.
type UsersRepo struct {
	inner   Repository
	store   cache.Store
	log     *slog.Logger
	metrics Observer
}

func NewUsersRepo(inner Repository, store cache.Store, log *slog.Logger, metrics Observer) *UsersRepo {
	if metrics == nil {
		metrics = nopObserver{}
	}

	return &UsersRepo{inner: inner, store: store, log: log, metrics: metrics}
}

// ids are UUIDs, so keys are case-folded to match any spelling of one id
func key(id string) string {
	return "users:v1:" + strings.ToLower(id)
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	return r.inner.List(ctx)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	b, ok, err := r.store.Get(ctx, key(id))

	switch {
	case err != nil:
		r.metrics.ObserveCache("error")
		r.log.WarnContext(ctx, "cache get failed", "user_id", id, "err", err)
	case ok:
		var u user.User
		if jsonErr := json.Unmarshal(b, &u); jsonErr == nil {
			r.metrics.ObserveCache("hit")
			return u, nil
		}
		r.metrics.ObserveCache("error")
	default:
		r.metrics.ObserveCache("miss")
	}

	u, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	r.put(ctx, u)

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	return r.inner.Create(ctx, req)
}

func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	u, err := r.inner.Update(ctx, id, req)
	if err != nil {
		return user.User{}, err
	}

	r.invalidate(ctx, id)

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	err := r.inner.Delete(ctx, id)
	if err != nil {
		return err
	}

	r.invalidate(ctx, id)

	return nil
}

func (r *UsersRepo) put(ctx context.Context, u user.User) {
	b, err := json.Marshal(u)
	if err != nil {
		return
	}

	if err := r.store.Set(ctx, key(u.ID), b); err != nil {
		r.log.WarnContext(ctx, "cache set failed", "user_id", u.ID, "err", err)
	}
}

func (r *UsersRepo) invalidate(ctx context.Context, id string) {
	if err := r.store.Delete(ctx, key(id)); err != nil {
		r.log.WarnContext(ctx, "cache invalidate failed", "user_id", id, "err", err)
	}
}
