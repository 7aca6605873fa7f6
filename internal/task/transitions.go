package task

import (
	"time"

	"github.com/louisbranch/taskhub/internal/platform/id"
)

// PointAward instructs the store to credit a user's point balance within the
// same unit of work as the transition that produced it.
type PointAward struct {
	UserID string
	Points int
}

// Transition is the computed outcome of one accepted lifecycle transition:
// the task's next state, the history entry recording it, and an optional
// point award.
type Transition struct {
	Task  Task
	Entry HistoryEntry
	Award *PointAward
}

// TransitionFunc computes the next state of a task from its current,
// committed state. The store calls it with the row it just read inside the
// transaction that will persist the result, so racing callers observe
// post-commit state and receive a not-applicable rejection instead of
// double-applying a transition.
type TransitionFunc func(current Task) (Transition, error)

// Assign returns the transition for an administrative (re)assignment.
// The task must still be uncompleted; a prior assignee is overwritten.
func Assign(userID string, now func() time.Time, idGenerator func() (string, error)) TransitionFunc {
	now, idGenerator = transitionDeps(now, idGenerator)
	return func(current Task) (Transition, error) {
		if current.Status != StatusUncompleted {
			return Transition{}, ErrNotUncompleted
		}

		at := now().UTC()
		updated := current
		updated.AssigneeID = userID
		updated.Assigned = true
		updated.UpdatedAt = at

		entry, err := newHistoryEntry(idGenerator, at, HistoryEntry{
			TaskID:             current.ID,
			UserID:             userID,
			Action:             ActionAssigned,
			PreviousStatus:     current.Status,
			NewStatus:          updated.Status,
			PreviousAssigneeID: current.AssigneeID,
			NewAssigneeID:      updated.AssigneeID,
			Notes:              "Task assigned",
		})
		if err != nil {
			return Transition{}, err
		}
		return Transition{Task: updated, Entry: entry}, nil
	}
}

// Pick returns the transition for a self-assignment from the pool.
// The task must be unassigned and uncompleted.
func Pick(userID string, now func() time.Time, idGenerator func() (string, error)) TransitionFunc {
	now, idGenerator = transitionDeps(now, idGenerator)
	return func(current Task) (Transition, error) {
		if current.Status != StatusUncompleted {
			return Transition{}, ErrNotUncompleted
		}
		if current.Assigned {
			return Transition{}, ErrAlreadyAssigned
		}

		at := now().UTC()
		updated := current
		updated.AssigneeID = userID
		updated.Assigned = true
		updated.UpdatedAt = at

		entry, err := newHistoryEntry(idGenerator, at, HistoryEntry{
			TaskID:             current.ID,
			UserID:             userID,
			Action:             ActionPicked,
			PreviousStatus:     current.Status,
			NewStatus:          updated.Status,
			PreviousAssigneeID: current.AssigneeID,
			NewAssigneeID:      updated.AssigneeID,
			Notes:              "Task picked from pool",
		})
		if err != nil {
			return Transition{}, err
		}
		return Transition{Task: updated, Entry: entry}, nil
	}
}

// Complete returns the transition that moves an uncompleted task to
// completed. Only the current assignee may complete.
func Complete(userID string, now func() time.Time, idGenerator func() (string, error)) TransitionFunc {
	now, idGenerator = transitionDeps(now, idGenerator)
	return func(current Task) (Transition, error) {
		if current.Status != StatusUncompleted {
			return Transition{}, ErrNotUncompleted
		}
		if current.AssigneeID != userID {
			return Transition{}, ErrNotAssignee
		}

		at := now().UTC()
		updated := current
		updated.Status = StatusCompleted
		updated.CompletedAt = &at
		updated.UpdatedAt = at

		entry, err := newHistoryEntry(idGenerator, at, HistoryEntry{
			TaskID:             current.ID,
			UserID:             userID,
			Action:             ActionCompleted,
			PreviousStatus:     current.Status,
			NewStatus:          updated.Status,
			PreviousAssigneeID: current.AssigneeID,
			NewAssigneeID:      updated.AssigneeID,
			Notes:              "Task marked as completed",
		})
		if err != nil {
			return Transition{}, err
		}
		return Transition{Task: updated, Entry: entry}, nil
	}
}

// Finalize returns the terminal transition that closes out a completed task
// and, when the task carries points and an assignee, awards those points.
// Any user may finalize a completed task; the caller need not be the
// assignee.
func Finalize(userID string, now func() time.Time, idGenerator func() (string, error)) TransitionFunc {
	now, idGenerator = transitionDeps(now, idGenerator)
	return func(current Task) (Transition, error) {
		if current.Status != StatusCompleted {
			return Transition{}, ErrNotCompleted
		}

		at := now().UTC()
		updated := current
		updated.Status = StatusFinalized
		updated.FinalizedAt = &at
		updated.UpdatedAt = at

		entry, err := newHistoryEntry(idGenerator, at, HistoryEntry{
			TaskID:             current.ID,
			UserID:             userID,
			Action:             ActionFinalized,
			PreviousStatus:     current.Status,
			NewStatus:          updated.Status,
			PreviousAssigneeID: current.AssigneeID,
			NewAssigneeID:      updated.AssigneeID,
			Notes:              "Task finalized and points awarded",
		})
		if err != nil {
			return Transition{}, err
		}

		t := Transition{Task: updated, Entry: entry}
		if updated.Points > 0 && updated.AssigneeID != "" {
			t.Award = &PointAward{UserID: updated.AssigneeID, Points: updated.Points}
		}
		return t, nil
	}
}

func transitionDeps(now func() time.Time, idGenerator func() (string, error)) (func() time.Time, func() (string, error)) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return now, idGenerator
}
