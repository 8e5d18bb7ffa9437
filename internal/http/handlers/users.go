package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/geocoder89/usersapi/internal/notifications"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidID   = "Invalid user id"
	msgNotFound    = "User not found."
	msgUserDeleted = "User deleted"
)

type UsersRepository interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	repo     UsersRepository
	notifier notifications.Notifier
}

func NewUsersHandler(repo UsersRepository) *UsersHandler {
	return &UsersHandler{repo: repo}
}

// NewUsersHandlerWithNotifier publishes a change notification after every
// successful write. Notification failures are logged, never returned.
func NewUsersHandlerWithNotifier(repo UsersRepository, notifier notifications.Notifier) *UsersHandler {
	return &UsersHandler{repo: repo, notifier: notifier}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	users, err := h.repo.List(ctx.Request.Context())

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list users failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, ok := user.ParseID(ctx.Param("id"))

	if !ok {
		ctx.String(http.StatusBadRequest, msgInvalidID)
		return
	}

	u, err := h.repo.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.String(http.StatusNotFound, msgNotFound)
			return
		}
		slog.Default().ErrorContext(ctx.Request.Context(), "get user failed", "user_id", id, "err", err)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !Bind(ctx, &req) {
		return
	}

	u, err := h.repo.Create(ctx.Request.Context(), req)

	if err != nil {
		Fail(ctx, http.StatusInternalServerError, "Could not create user", err)
		return
	}

	h.notify(ctx.Request.Context(), notifications.KindCreated, u)

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := user.ParseID(ctx.Param("id"))

	if !ok {
		ctx.String(http.StatusBadRequest, msgInvalidID)
		return
	}

	var req user.UpdateUserRequest

	if !BindPartial(ctx, &req) {
		return
	}

	u, err := h.repo.Update(ctx.Request.Context(), id, req)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.String(http.StatusNotFound, msgNotFound)
			return
		}
		slog.Default().ErrorContext(ctx.Request.Context(), "update user failed", "user_id", id, "err", err)
		RespondInternal(ctx, "Could not update user")
		return
	}

	if !req.IsEmpty() {
		h.notify(ctx.Request.Context(), notifications.KindUpdated, u)
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := user.ParseID(ctx.Param("id"))

	if !ok {
		ctx.String(http.StatusBadRequest, msgInvalidID)
		return
	}

	err := h.repo.Delete(ctx.Request.Context(), id)

	if err != nil {
		Fail(ctx, http.StatusInternalServerError, "Could not delete user", err)
		return
	}

	h.notify(ctx.Request.Context(), notifications.KindDeleted, user.User{ID: id})

	ctx.String(http.StatusOK, msgUserDeleted)
}

func (h *UsersHandler) notify(ctx context.Context, kind notifications.Kind, u user.User) {
	if h.notifier == nil {
		return
	}

	err := h.notifier.NotifyUserChanged(ctx, notifications.NewChange(kind, u))
	if err != nil {
		slog.Default().WarnContext(ctx, "user change notification failed", "kind", kind, "user_id", u.ID, "err", err)
	}
}
