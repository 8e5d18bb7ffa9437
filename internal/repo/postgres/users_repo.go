package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/geocoder89/usersapi/internal/repo/postgres"

// DBObserver records the outcome of a logical DB operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type nopObserver struct{}

func (nopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

// document is the JSONB body of a users row.
type document struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
}

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics DBObserver
	tracer  trace.Tracer
}

func NewUsersRepo(pool *pgxpool.Pool, metrics DBObserver) *UsersRepo {
	if metrics == nil {
		metrics = nopObserver{}
	}

	return &UsersRepo{
		pool:    pool,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

const selectUser = `SELECT id, doc, created_at, updated_at FROM users`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var doc document

	err := row.Scan(&u.ID, &doc, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}

	u.Name = doc.Name
	u.Email = doc.Email
	u.Country = doc.Country

	return u, nil
}

func (r *UsersRepo) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("db.system", "postgresql")))
	defer span.End()

	err := r.metrics.ObserveDB(op, func() error { return fn(ctx) })

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.run(ctx, "users.list", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, selectUser+` ORDER BY seq ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.run(ctx, "users.get", func(ctx context.Context) error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user %s: %w", id, err)
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	u := user.NewFromCreateRequest(req)

	err := r.run(ctx, "users.create", func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, doc, created_at, updated_at) VALUES ($1, $2::jsonb, $3, $4)`,
			u.ID,
			document{Name: u.Name, Email: u.Email, Country: u.Country},
			u.CreatedAt,
			u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Update merges the supplied fields into the stored document in a single
// statement, so concurrent updates to different fields do not clobber each other.
func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	if req.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var u user.User

	err := r.run(ctx, "users.update", func(ctx context.Context) error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
				SET doc = doc || $2::jsonb,
						updated_at = NOW()
			WHERE id = $1
			RETURNING id, doc, created_at, updated_at`,
			id,
			req.Fields(),
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("update user %s: %w", id, err)
	}

	return u, nil
}

// Delete removes the user if present; a missing id is not an error.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	err := r.run(ctx, "users.delete", func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	return nil
}
