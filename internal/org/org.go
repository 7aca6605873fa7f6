// Package org defines organizations, the tenancy boundary that scopes
// tasks, members, and invitations.
package org

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
)

// ErrNameEmpty indicates an organization was submitted without a name.
var ErrNameEmpty = apperrors.New(apperrors.CodeOrganizationNameEmpty, "organization name is required")

// Organization is a tenant. OwnerID references the founding user, who is
// adopted into the organization when it is created.
type Organization struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the fields accepted when founding an organization.
type CreateInput struct {
	Name        string
	Description string
	OwnerID     string
}

// Create validates the input and builds a new organization.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Organization, error) {
	if now == nil {
		now = time.Now
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Organization{}, ErrNameEmpty
	}

	id, err := idGenerator()
	if err != nil {
		return Organization{}, apperrors.Wrap(apperrors.CodeUnknown, "generate organization id", err)
	}

	createdAt := now().UTC()
	return Organization{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// Patch carries optional field updates. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	OwnerID     *string
}

// Apply returns a copy of o with the non-nil patch fields applied and
// UpdatedAt stamped.
func (p Patch) Apply(o Organization, now time.Time) Organization {
	if p.Name != nil {
		o.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		o.Description = strings.TrimSpace(*p.Description)
	}
	if p.OwnerID != nil {
		o.OwnerID = *p.OwnerID
	}
	o.UpdatedAt = now.UTC()
	return o
}
