package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const idLength = 36

func NewFromCreateRequest(req CreateUserRequest) User {
	now := time.Now().UTC()

	return User{
		ID:        NewID(),
		Name:      req.Name,
		Email:     req.Email,
		Country:   req.Country,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id is a canonical 8-4-4-4-12 UUID.
// uuid.Validate alone also accepts the urn, braced and undashed forms.
func ValidID(id string) bool {
	if len(id) != idLength || strings.Count(id, "-") != 4 {
		return false
	}

	return uuid.Validate(id) == nil
}

// ParseID validates id and returns its lowercase form, the spelling every
// store and cache key uses.
func ParseID(id string) (string, bool) {
	if !ValidID(id) {
		return "", false
	}

	return strings.ToLower(id), true
}
