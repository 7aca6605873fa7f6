package org

import (
	"errors"
	"testing"
	"time"
)

func TestCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := Create(CreateInput{
		Name:        "  Acme  ",
		Description: " Widgets ",
		OwnerID:     "user-1",
	}, func() time.Time { return now }, func() (string, error) { return "org-1", nil })
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Name != "Acme" || created.Description != "Widgets" {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}
	if created.OwnerID != "user-1" {
		t.Fatalf("expected owner recorded, got %q", created.OwnerID)
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps pinned to clock, got %+v", created)
	}
}

func TestCreateRequiresName(t *testing.T) {
	_, err := Create(CreateInput{Name: "   "}, nil, nil)
	if !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("expected ErrNameEmpty, got %v", err)
	}
}

func TestPatchApply(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	name := "Acme Corp"

	current := Organization{ID: "org-1", Name: "Acme", Description: "Widgets", OwnerID: "user-1"}
	updated := Patch{Name: &name}.Apply(current, now)

	if updated.Name != "Acme Corp" {
		t.Fatalf("expected patched name, got %q", updated.Name)
	}
	if updated.Description != "Widgets" || updated.OwnerID != "user-1" {
		t.Fatalf("nil fields must be untouched, got %+v", updated)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt stamped, got %v", updated.UpdatedAt)
	}
}
