// Package invite defines token-based invitations that let organizations
// onboard new members by email.
package invite

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
	"github.com/louisbranch/taskhub/internal/user"
)

// DefaultTTL is how long a fresh invitation stays redeemable.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrEmailEmpty indicates an invitation was submitted without an email.
	ErrEmailEmpty = apperrors.New(apperrors.CodeInvitationEmailEmpty, "invitation email is required")
	// ErrEmailInUse indicates an active account already holds the email.
	ErrEmailInUse = apperrors.New(apperrors.CodeInvitationNotApplicable, "email already belongs to an active user")
	// ErrNotRedeemable indicates the invitation is expired or already accepted.
	ErrNotRedeemable = apperrors.New(apperrors.CodeInvitationNotApplicable, "invitation is expired or already accepted")
)

// Invitation is an offer to join an organization, redeemed by token.
// Role is the role the redeeming user will hold. AcceptedAt is nil until
// a user redeems it.
type Invitation struct {
	ID             string
	OrganizationID string
	Email          string
	InviterID      string
	Role           user.Role
	Token          string
	ExpiresAt      time.Time
	AcceptedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Live reports whether the invitation can still be redeemed at the given
// time: not yet accepted and not past its expiry.
func (i Invitation) Live(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

// CreateInput carries the fields accepted when inviting someone.
type CreateInput struct {
	OrganizationID string
	Email          string
	InviterID      string
	Role           user.Role
	TTL            time.Duration
}

// Create validates the input and builds a new invitation with a fresh
// token. The role defaults to user.RoleUser and the TTL to DefaultTTL
// when unset.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Invitation, error) {
	if now == nil {
		now = time.Now
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return Invitation{}, ErrEmailEmpty
	}

	role := input.Role
	if role == "" {
		role = user.RoleUser
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	id, err := idGenerator()
	if err != nil {
		return Invitation{}, apperrors.Wrap(apperrors.CodeUnknown, "generate invitation id", err)
	}
	token, err := idGenerator()
	if err != nil {
		return Invitation{}, apperrors.Wrap(apperrors.CodeUnknown, "generate invitation token", err)
	}

	createdAt := now().UTC()
	return Invitation{
		ID:             id,
		OrganizationID: input.OrganizationID,
		Email:          email,
		InviterID:      input.InviterID,
		Role:           role,
		Token:          token,
		ExpiresAt:      createdAt.Add(ttl),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// Renew refreshes the invitation's token and extends its expiry from the
// given time. Used when the same email is invited again while a previous
// invitation is still live.
func (i Invitation) Renew(now time.Time, idGenerator func() (string, error)) (Invitation, error) {
	token, err := idGenerator()
	if err != nil {
		return Invitation{}, apperrors.Wrap(apperrors.CodeUnknown, "generate invitation token", err)
	}
	i.Token = token
	i.ExpiresAt = now.UTC().Add(DefaultTTL)
	i.UpdatedAt = now.UTC()
	return i, nil
}
