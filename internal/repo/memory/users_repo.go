package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
	order []string // insertion order of live ids
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	u := user.NewFromCreateRequest(req)

	r.mu.Lock()
	r.items[u.ID] = u
	r.order = append(r.order, u.ID)
	r.mu.Unlock()

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if req.IsEmpty() {
		return u, nil
	}

	u = req.Apply(u)
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return nil
	}

	delete(r.items, id)

	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

// Ping satisfies the readiness check; the memory store is always reachable.
func (r *UsersRepo) Ping(ctx context.Context) error {
	return nil
}
