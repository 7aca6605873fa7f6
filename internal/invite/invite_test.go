package invite

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/louisbranch/taskhub/internal/user"
)

func sequenceIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func TestCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := Create(CreateInput{
		OrganizationID: "org-1",
		Email:          " new@example.com ",
		InviterID:      "user-1",
	}, func() time.Time { return now }, sequenceIDs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Email != "new@example.com" {
		t.Fatalf("expected trimmed email, got %q", created.Email)
	}
	if created.Role != user.RoleUser {
		t.Fatalf("expected default role, got %q", created.Role)
	}
	if created.Token == "" || created.Token == created.ID {
		t.Fatalf("expected a distinct token, got id=%q token=%q", created.ID, created.Token)
	}
	if !created.ExpiresAt.Equal(now.Add(DefaultTTL)) {
		t.Fatalf("expected default TTL, got expiry %v", created.ExpiresAt)
	}
	if created.AcceptedAt != nil {
		t.Fatal("expected fresh invitation to be unaccepted")
	}
	if !created.Live(now) {
		t.Fatal("expected fresh invitation to be live")
	}
}

func TestCreateRequiresEmail(t *testing.T) {
	_, err := Create(CreateInput{OrganizationID: "org-1"}, nil, sequenceIDs())
	if !errors.Is(err, ErrEmailEmpty) {
		t.Fatalf("expected ErrEmailEmpty, got %v", err)
	}
}

func TestCreateCustomTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := Create(CreateInput{
		OrganizationID: "org-1",
		Email:          "new@example.com",
		TTL:            time.Hour,
	}, func() time.Time { return now }, sequenceIDs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected one hour TTL, got expiry %v", created.ExpiresAt)
	}
}

func TestLive(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	accepted := now.Add(-time.Hour)

	cases := []struct {
		name string
		inv  Invitation
		want bool
	}{
		{"fresh", Invitation{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", Invitation{ExpiresAt: now.Add(-time.Minute)}, false},
		{"accepted", Invitation{ExpiresAt: now.Add(time.Hour), AcceptedAt: &accepted}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.inv.Live(now); got != tc.want {
				t.Fatalf("Live() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRenew(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	current := Invitation{
		ID:        "inv-1",
		Token:     "old-token",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now.Add(-time.Hour),
	}

	renewed, err := current.Renew(now, func() (string, error) { return "new-token", nil })
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.Token != "new-token" {
		t.Fatalf("expected refreshed token, got %q", renewed.Token)
	}
	if !renewed.ExpiresAt.Equal(now.Add(DefaultTTL)) {
		t.Fatalf("expected expiry extended from now, got %v", renewed.ExpiresAt)
	}
	if renewed.ID != "inv-1" || !renewed.CreatedAt.Equal(current.CreatedAt) {
		t.Fatalf("identity fields must be untouched, got %+v", renewed)
	}
}
