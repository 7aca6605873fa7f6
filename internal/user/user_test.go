package user

import (
	"errors"
	"testing"
	"time"
)

func staticID(id string) func() (string, error) {
	return func() (string, error) { return id, nil }
}

func TestCreateDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := Create(CreateInput{
		Name:  "  Ada Lovelace  ",
		Email: " ada@example.com ",
	}, func() time.Time { return now }, staticID("user-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Name != "Ada Lovelace" || created.Email != "ada@example.com" {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}
	if created.Role != RoleUser {
		t.Fatalf("expected default role, got %s", created.Role)
	}
	if !created.Active {
		t.Fatal("expected new user to be active")
	}
	if created.Points != 0 {
		t.Fatalf("expected zero points, got %d", created.Points)
	}
	if created.OrganizationID != "" {
		t.Fatalf("expected no organization, got %q", created.OrganizationID)
	}
	if !created.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt pinned to clock, got %v", created.CreatedAt)
	}
}

func TestCreateValidation(t *testing.T) {
	_, err := Create(CreateInput{Email: "ada@example.com"}, nil, staticID("user-1"))
	if !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("expected ErrNameEmpty, got %v", err)
	}

	_, err = Create(CreateInput{Name: "Ada"}, nil, staticID("user-1"))
	if !errors.Is(err, ErrEmailEmpty) {
		t.Fatalf("expected ErrEmailEmpty, got %v", err)
	}
}

func TestPatchApply(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	name := "Grace"
	role := RoleAdmin
	points := 12
	inactive := false

	current := User{ID: "user-1", Name: "Ada", Email: "ada@example.com", Role: RoleUser, Active: true}
	updated := Patch{Name: &name, Role: &role, Points: &points, Active: &inactive}.Apply(current, now)

	if updated.Name != "Grace" || updated.Role != RoleAdmin || updated.Points != 12 {
		t.Fatalf("unexpected patched user: %+v", updated)
	}
	if updated.Active {
		t.Fatal("expected user to be deactivated")
	}
	if updated.Email != "ada@example.com" {
		t.Fatalf("nil fields must be untouched, got %q", updated.Email)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt stamped, got %v", updated.UpdatedAt)
	}
}

func TestRoleIsValid(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAdmin, RoleOwner} {
		if !role.IsValid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if Role("superuser").IsValid() {
		t.Fatal("expected unknown role to be invalid")
	}
}
