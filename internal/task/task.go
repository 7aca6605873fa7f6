// Package task implements the task lifecycle engine: the status state
// machine, assignment rules, and the append-only history log emitted for
// every accepted transition.
//
// Status moves only along uncompleted → completed → finalized. Assignment is
// an orthogonal axis recorded via the assignee reference and the assigned
// flag. Two asymmetries are deliberate and preserved from the system this
// replaces: Assign may overwrite an existing assignee while the task is
// still uncompleted, and Finalize does not require the caller to be the
// assignee (Complete does).
package task

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
	"github.com/louisbranch/taskhub/internal/platform/id"
)

// Status is the lifecycle state of a task.
type Status string

const (
	// StatusUncompleted is the initial state.
	StatusUncompleted Status = "uncompleted"
	// StatusCompleted indicates the assignee finished the work.
	StatusCompleted Status = "completed"
	// StatusFinalized is the terminal state; points are awarded on entry.
	StatusFinalized Status = "finalized"
)

// IsValid reports whether s is a known lifecycle status.
func (s Status) IsValid() bool {
	switch s {
	case StatusUncompleted, StatusCompleted, StatusFinalized:
		return true
	}
	return false
}

var (
	// ErrTitleEmpty indicates a missing task title.
	ErrTitleEmpty = apperrors.New(apperrors.CodeTaskTitleEmpty, "task title is required")
	// ErrNotUncompleted rejects a transition that requires the initial state.
	ErrNotUncompleted = apperrors.New(apperrors.CodeTaskNotApplicable, "task is not uncompleted")
	// ErrAlreadyAssigned rejects picking a task that already has an assignee.
	ErrAlreadyAssigned = apperrors.New(apperrors.CodeTaskNotApplicable, "task is already assigned")
	// ErrNotAssignee rejects completion by anyone but the current assignee.
	ErrNotAssignee = apperrors.New(apperrors.CodeTaskNotApplicable, "only the current assignee may complete a task")
	// ErrNotCompleted rejects finalizing a task that is not completed.
	ErrNotCompleted = apperrors.New(apperrors.CodeTaskNotApplicable, "task is not completed")
)

// Task represents a unit of work within an organization.
type Task struct {
	ID             string
	Title          string
	Description    string
	OrganizationID string
	CreatorID      string
	AssigneeID     string // empty while the task sits in the pool
	Assigned       bool
	Status         Status
	Points         int
	DueDate        *time.Time
	CompletedAt    *time.Time
	FinalizedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateInput describes the fields needed to create a task.
type CreateInput struct {
	Title          string
	Description    string
	DueDate        *time.Time
	OrganizationID string
	CreatorID      string
	AssigneeID     string
}

// Create builds a new task in the initial state together with its "created"
// history entry. Both rows are persisted by the store in one unit of work.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Task, HistoryEntry, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Task{}, HistoryEntry{}, ErrTitleEmpty
	}
	input.AssigneeID = strings.TrimSpace(input.AssigneeID)

	taskID, err := idGenerator()
	if err != nil {
		return Task{}, HistoryEntry{}, fmt.Errorf("generate task id: %w", err)
	}

	createdAt := now().UTC()
	t := Task{
		ID:             taskID,
		Title:          input.Title,
		Description:    input.Description,
		OrganizationID: input.OrganizationID,
		CreatorID:      input.CreatorID,
		AssigneeID:     input.AssigneeID,
		Assigned:       input.AssigneeID != "",
		Status:         StatusUncompleted,
		Points:         0,
		DueDate:        input.DueDate,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	entry, err := newHistoryEntry(idGenerator, createdAt, HistoryEntry{
		TaskID:        t.ID,
		UserID:        t.CreatorID,
		Action:        ActionCreated,
		NewStatus:     t.Status,
		NewAssigneeID: t.AssigneeID,
		Notes:         "Task created",
	})
	if err != nil {
		return Task{}, HistoryEntry{}, err
	}
	return t, entry, nil
}

// Patch describes a partial update outside the state machine. Nil fields are
// left untouched. Patching AssigneeID keeps the assigned flag in step: a
// non-empty id assigns the task, an empty one returns it to the pool.
type Patch struct {
	Title       *string
	Description *string
	Points      *int
	DueDate     *time.Time
	AssigneeID  *string
}

// Apply returns a copy of t with the patch applied and updatedAt stamped.
// Status and the lifecycle timestamps are never touched here.
func (p Patch) Apply(t Task, now time.Time) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Points != nil {
		t.Points = *p.Points
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.AssigneeID != nil {
		t.AssigneeID = strings.TrimSpace(*p.AssigneeID)
		t.Assigned = t.AssigneeID != ""
	}
	t.UpdatedAt = now.UTC()
	return t
}
