package task

import (
	"fmt"
	"time"
)

// Action tags a history entry with the transition that produced it.
type Action string

const (
	// ActionCreated records task creation.
	ActionCreated Action = "created"
	// ActionAssigned records an administrative (re)assignment.
	ActionAssigned Action = "assigned"
	// ActionPicked records a self-assignment from the pool.
	ActionPicked Action = "picked"
	// ActionCompleted records the assignee finishing the task.
	ActionCompleted Action = "completed"
	// ActionFinalized records the terminal close-out.
	ActionFinalized Action = "finalized"
	// ActionReassigned is reserved; no current transition emits it.
	ActionReassigned Action = "reassigned"
)

// HistoryEntry is an immutable audit record of one lifecycle transition.
// Entries are append-only: once written they are never updated or deleted,
// except by the cascade that removes a task outright.
type HistoryEntry struct {
	ID                 string
	TaskID             string
	UserID             string
	Action             Action
	PreviousStatus     Status // empty on creation entries
	NewStatus          Status
	PreviousAssigneeID string
	NewAssigneeID      string
	Notes              string
	CreatedAt          time.Time
}

// newHistoryEntry fills in the generated identity and timestamp of an entry.
func newHistoryEntry(idGenerator func() (string, error), createdAt time.Time, entry HistoryEntry) (HistoryEntry, error) {
	entryID, err := idGenerator()
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("generate history id: %w", err)
	}
	entry.ID = entryID
	entry.CreatedAt = createdAt
	return entry, nil
}
