package user

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "generated", id: NewID(), want: true},
		{name: "uppercase", id: strings.ToUpper(uuid.NewString()), want: true},
		{name: "nil_uuid", id: "00000000-0000-0000-0000-000000000000", want: true},
		{name: "short_literal", id: "1", want: false},
		{name: "empty", id: "", want: false},
		{name: "object_id", id: "5f43ef20c1d4a133e4628181", want: false},
		{name: "undashed", id: strings.ReplaceAll(uuid.NewString(), "-", ""), want: false},
		{name: "braced", id: "{" + uuid.NewString() + "}", want: false},
		{name: "urn", id: "urn:uuid:" + uuid.NewString(), want: false},
		{name: "non_hex", id: "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidID(tt.id); got != tt.want {
				t.Fatalf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestParseID_Lowercases(t *testing.T) {
	lower := NewID()

	got, ok := ParseID(strings.ToUpper(lower))
	if !ok || got != lower {
		t.Fatalf("ParseID(upper) = %q, %v; want %q, true", got, ok, lower)
	}

	if _, ok := ParseID("1"); ok {
		t.Fatalf("ParseID(\"1\") should fail")
	}
}

func TestUpdateUserRequest_ApplyKeepsUnsuppliedFields(t *testing.T) {
	u := User{ID: NewID(), Name: "jake", Email: "jake@x.com", Country: "sweden"}

	name := "juan"
	country := "spain"
	got := UpdateUserRequest{Name: &name, Country: &country}.Apply(u)

	if got.Name != "juan" || got.Country != "spain" {
		t.Fatalf("supplied fields not applied: %+v", got)
	}
	if got.Email != "jake@x.com" {
		t.Fatalf("email changed: got %q", got.Email)
	}
	if got.ID != u.ID {
		t.Fatalf("id changed: got %q want %q", got.ID, u.ID)
	}
}

func TestUpdateUserRequest_Fields(t *testing.T) {
	email := "doe@x.com"
	req := UpdateUserRequest{Email: &email}

	fields := req.Fields()
	if len(fields) != 1 || fields["email"] != email {
		t.Fatalf("unexpected fields: %v", fields)
	}

	if req.IsEmpty() {
		t.Fatalf("request with email should not be empty")
	}
	if !(UpdateUserRequest{}).IsEmpty() {
		t.Fatalf("zero request should be empty")
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	u := NewFromCreateRequest(CreateUserRequest{Name: "doe", Email: "doe@x.com", Country: "sweden"})

	if !ValidID(u.ID) {
		t.Fatalf("generated id is not valid: %q", u.ID)
	}
	if u.Name != "doe" || u.Email != "doe@x.com" || u.Country != "sweden" {
		t.Fatalf("fields not copied: %+v", u)
	}
	if u.CreatedAt.IsZero() || !u.CreatedAt.Equal(u.UpdatedAt) {
		t.Fatalf("timestamps not initialised: %+v", u)
	}
}
