// Package storage defines the persistence interfaces the API layer
// depends on. Implementations live in subpackages.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/taskhub/internal/invite"
	"github.com/louisbranch/taskhub/internal/org"
	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
	"github.com/louisbranch/taskhub/internal/task"
	"github.com/louisbranch/taskhub/internal/user"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrReferenceNotFound is returned when a supplied organization or user
// reference does not resolve to an existing record.
var ErrReferenceNotFound = apperrors.New(apperrors.CodeReferenceNotFound, "referenced record does not exist")

// TaskStore persists tasks and their append-only history.
type TaskStore interface {
	// CreateTask inserts a task and its creation history entry in one
	// transaction, after resolving the task's organization, creator, and
	// assignee references.
	CreateTask(ctx context.Context, t task.Task, entry task.HistoryEntry) error
	GetTask(ctx context.Context, id string) (task.Task, error)
	ListTasks(ctx context.Context) ([]task.Task, error)
	ListTasksByOrganization(ctx context.Context, orgID string) ([]task.Task, error)
	// ListTaskPool returns the organization's unassigned uncompleted tasks.
	ListTaskPool(ctx context.Context, orgID string) ([]task.Task, error)
	ListTasksByAssignee(ctx context.Context, userID string) ([]task.Task, error)
	// ApplyTaskTransition loads the task, runs fn against its current
	// state, and persists the resulting task, history entry, and point
	// award atomically. Concurrent transitions on the same task are
	// serialized so the loser observes the winner's committed state.
	ApplyTaskTransition(ctx context.Context, taskID string, fn task.TransitionFunc) (task.Task, error)
	// UpdateTask applies the patch, re-resolving the assignee reference
	// when the patch changes it.
	UpdateTask(ctx context.Context, taskID string, patch task.Patch, now time.Time) (task.Task, error)
	// DeleteTask removes the task and its history entries.
	DeleteTask(ctx context.Context, taskID string) error
	// TaskHistory returns the task's history entries newest first.
	TaskHistory(ctx context.Context, taskID string) ([]task.HistoryEntry, error)
}

// UserStore persists member accounts.
type UserStore interface {
	// CreateUser inserts the user, resolving the organization reference
	// when one is set.
	CreateUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	// ListUsersByOrganization returns the organization's active members,
	// ordered by name.
	ListUsersByOrganization(ctx context.Context, orgID string) ([]user.User, error)
	// UpdateUser applies the patch to an active user, re-resolving the
	// organization reference when the patch changes it.
	UpdateUser(ctx context.Context, userID string, patch user.Patch, now time.Time) (user.User, error)
	// DeactivateUser marks the user inactive; the row survives so task
	// history stays resolvable.
	DeactivateUser(ctx context.Context, userID string, now time.Time) error
	// AwardPoints adds points to the user's balance. A missing or
	// inactive user is reported as not found.
	AwardPoints(ctx context.Context, userID string, points int, now time.Time) error
}

// OrganizationStore persists organizations.
type OrganizationStore interface {
	// CreateOrganization inserts the organization in one transaction
	// with resolving its owner; an owner without an organization is
	// adopted into the new one.
	CreateOrganization(ctx context.Context, o org.Organization) error
	GetOrganization(ctx context.Context, id string) (org.Organization, error)
	ListOrganizations(ctx context.Context) ([]org.Organization, error)
	// UpdateOrganization applies the patch, re-resolving the owner
	// reference when the patch changes it.
	UpdateOrganization(ctx context.Context, orgID string, patch org.Patch, now time.Time) (org.Organization, error)
	DeleteOrganization(ctx context.Context, orgID string) error
}

// InvitationStore persists invitations and redeems them.
type InvitationStore interface {
	// CreateInvitation inserts the invitation after resolving its
	// organization and inviter. When a live invitation already exists
	// for the same organization and email, that one is renewed instead
	// and returned.
	CreateInvitation(ctx context.Context, inv invite.Invitation, now time.Time) (invite.Invitation, error)
	GetInvitation(ctx context.Context, id string) (invite.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (invite.Invitation, error)
	// ListInvitations returns the invitations still redeemable at the
	// given time, newest first.
	ListInvitations(ctx context.Context, now time.Time) ([]invite.Invitation, error)
	// ListInvitationsByOrganization returns all of the organization's
	// invitations, redeemed and expired included, newest first.
	ListInvitationsByOrganization(ctx context.Context, orgID string) ([]invite.Invitation, error)
	DeleteInvitation(ctx context.Context, id string) error
	// AcceptInvitation redeems the live invitation identified by token:
	// it creates the given user in the invitation's organization, under
	// the invitation's email and role, and stamps the invitation
	// accepted, atomically.
	AcceptInvitation(ctx context.Context, token string, newUser user.User, now time.Time) (invite.Invitation, error)
}

// Store is the full persistence surface the application wires up.
type Store interface {
	TaskStore
	UserStore
	OrganizationStore
	InvitationStore
	Close() error
}
