// Package user defines member accounts within an organization, their
// roles, and the point balance that finalized tasks feed.
package user

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
)

// Role controls what a member may do inside an organization. Roles are
// stored as-is; enforcement happens at the API layer.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

var (
	// ErrNameEmpty indicates a user was submitted without a display name.
	ErrNameEmpty = apperrors.New(apperrors.CodeUserNameEmpty, "user name is required")
	// ErrEmailEmpty indicates a user was submitted without an email address.
	ErrEmailEmpty = apperrors.New(apperrors.CodeUserEmailEmpty, "user email is required")
	// ErrEmailTaken indicates another account already holds the email address.
	ErrEmailTaken = apperrors.New(apperrors.CodeUserEmailTaken, "user email is already in use")
)

// User is a member account. OrganizationID is empty until the user joins
// or founds an organization. Deactivated users keep their rows so task
// history stays resolvable; Active gates everything else.
type User struct {
	ID             string
	Name           string
	Email          string
	Role           Role
	OrganizationID string
	Points         int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateInput carries the fields accepted when registering a user.
type CreateInput struct {
	Name           string
	Email          string
	Role           Role
	OrganizationID string
}

// Create validates the input and builds a new active user with a zero
// point balance. The role defaults to RoleUser when unset.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return User{}, ErrNameEmpty
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return User{}, ErrEmailEmpty
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}

	id, err := idGenerator()
	if err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeUnknown, "generate user id", err)
	}

	createdAt := now().UTC()
	return User{
		ID:             id,
		Name:           name,
		Email:          email,
		Role:           role,
		OrganizationID: input.OrganizationID,
		Active:         true,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// Patch carries optional field updates. Nil fields are left untouched.
type Patch struct {
	Name           *string
	Email          *string
	Role           *Role
	OrganizationID *string
	Points         *int
	Active         *bool
}

// Apply returns a copy of u with the non-nil patch fields applied and
// UpdatedAt stamped.
func (p Patch) Apply(u User, now time.Time) User {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.OrganizationID != nil {
		u.OrganizationID = *p.OrganizationID
	}
	if p.Points != nil {
		u.Points = *p.Points
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	u.UpdatedAt = now.UTC()
	return u
}
