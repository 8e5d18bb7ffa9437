package user

import (
	"errors"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("user not found")

// accepted as JSON or form-encoded bodies
type CreateUserRequest struct {
	Name    string `json:"name" form:"name" binding:"required,max=200"`
	Email   string `json:"email" form:"email" binding:"required,max=320"`
	Country string `json:"country" form:"country" binding:"required,max=120"`
}

// nil fields are left untouched by an update
type UpdateUserRequest struct {
	Name    *string `json:"name" form:"name" binding:"omitempty,min=1,max=200"`
	Email   *string `json:"email" form:"email" binding:"omitempty,min=1,max=320"`
	Country *string `json:"country" form:"country" binding:"omitempty,min=1,max=120"`
}

func (r UpdateUserRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Country == nil
}

// Fields returns only the supplied fields keyed by their document names.
func (r UpdateUserRequest) Fields() map[string]string {
	fields := make(map[string]string, 3)

	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.Country != nil {
		fields["country"] = *r.Country
	}

	return fields
}

// Apply merges the supplied fields into u.
func (r UpdateUserRequest) Apply(u User) User {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Country != nil {
		u.Country = *r.Country
	}

	return u
}
