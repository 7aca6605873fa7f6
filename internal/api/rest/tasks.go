package rest

import (
	"net/http"
	"time"

	"github.com/louisbranch/taskhub/internal/storage"
	"github.com/louisbranch/taskhub/internal/task"
)

// TaskService handles the task lifecycle routes.
type TaskService struct {
	store storage.TaskStore
	clock func() time.Time
	newID func() (string, error)
}

// NewTaskService wires the task routes to the given store. clock and
// idGenerator may be nil for the production defaults.
func NewTaskService(store storage.TaskStore, clock func() time.Time, idGenerator func() (string, error)) *TaskService {
	return &TaskService{
		store: store,
		clock: defaultClock(clock),
		newID: defaultIDGenerator(idGenerator),
	}
}

// RegisterRoutes mounts the task routes on mux.
func (s *TaskService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/tasks", s.handleCreate)
	mux.HandleFunc("GET /api/tasks", s.handleList)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/tasks/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/tasks/organization/{orgID}", s.handleListByOrganization)
	mux.HandleFunc("GET /api/tasks/organization/{orgID}/pool", s.handleListPool)
	mux.HandleFunc("GET /api/tasks/user/{userID}", s.handleListByAssignee)
	mux.HandleFunc("POST /api/tasks/{id}/assign/{userID}", s.transitionHandler(task.Assign))
	mux.HandleFunc("POST /api/tasks/{id}/pick/{userID}", s.transitionHandler(task.Pick))
	mux.HandleFunc("POST /api/tasks/{id}/complete/{userID}", s.transitionHandler(task.Complete))
	mux.HandleFunc("POST /api/tasks/{id}/finalize/{userID}", s.transitionHandler(task.Finalize))
}

type taskPayload struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	OrganizationID string     `json:"organizationId"`
	CreatorID      string     `json:"creatorId"`
	AssigneeID     *string    `json:"assigneeId"`
	Assigned       bool       `json:"assigned"`
	Status         string     `json:"status"`
	Points         int        `json:"points"`
	DueDate        *time.Time `json:"dueDate"`
	CompletedAt    *time.Time `json:"completedAt"`
	FinalizedAt    *time.Time `json:"finalizedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toTaskPayload(t task.Task) taskPayload {
	p := taskPayload{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		OrganizationID: t.OrganizationID,
		CreatorID:      t.CreatorID,
		Assigned:       t.Assigned,
		Status:         string(t.Status),
		Points:         t.Points,
		DueDate:        t.DueDate,
		CompletedAt:    t.CompletedAt,
		FinalizedAt:    t.FinalizedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.AssigneeID != "" {
		assignee := t.AssigneeID
		p.AssigneeID = &assignee
	}
	return p
}

func toTaskPayloads(tasks []task.Task) []taskPayload {
	payloads := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		payloads = append(payloads, toTaskPayload(t))
	}
	return payloads
}

type historyPayload struct {
	ID                 string    `json:"id"`
	TaskID             string    `json:"taskId"`
	UserID             string    `json:"userId"`
	Action             string    `json:"action"`
	PreviousStatus     string    `json:"previousStatus,omitempty"`
	NewStatus          string    `json:"newStatus,omitempty"`
	PreviousAssigneeID *string   `json:"previousAssigneeId"`
	NewAssigneeID      *string   `json:"newAssigneeId"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toHistoryPayload(e task.HistoryEntry) historyPayload {
	p := historyPayload{
		ID:             e.ID,
		TaskID:         e.TaskID,
		UserID:         e.UserID,
		Action:         string(e.Action),
		PreviousStatus: string(e.PreviousStatus),
		NewStatus:      string(e.NewStatus),
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt,
	}
	if e.PreviousAssigneeID != "" {
		prev := e.PreviousAssigneeID
		p.PreviousAssigneeID = &prev
	}
	if e.NewAssigneeID != "" {
		next := e.NewAssigneeID
		p.NewAssigneeID = &next
	}
	return p
}

type createTaskRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	OrganizationID string     `json:"organizationId"`
	CreatorID      string     `json:"creatorId"`
	AssigneeID     string     `json:"assigneeId"`
	DueDate        *time.Time `json:"dueDate"`
}

func (s *TaskService) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, entry, err := task.Create(task.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		OrganizationID: req.OrganizationID,
		CreatorID:      req.CreatorID,
		AssigneeID:     req.AssigneeID,
	}, s.clock, s.newID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.CreateTask(r.Context(), created, entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskPayload(created))
}

func (s *TaskService) handleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayloads(tasks))
}

func (s *TaskService) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayload(t))
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Points      *int       `json:"points"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *string    `json:"assigneeId"`
}

func (s *TaskService) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	updated, err := s.store.UpdateTask(r.Context(), r.PathValue("id"), task.Patch{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	}, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayload(updated))
}

func (s *TaskService) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *TaskService) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.TaskHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	payloads := make([]historyPayload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, toHistoryPayload(e))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *TaskService) handleListByOrganization(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasksByOrganization(r.Context(), r.PathValue("orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayloads(tasks))
}

func (s *TaskService) handleListPool(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTaskPool(r.Context(), r.PathValue("orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayloads(tasks))
}

func (s *TaskService) handleListByAssignee(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasksByAssignee(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayloads(tasks))
}

// transitionHandler adapts a lifecycle transition constructor into an
// HTTP handler, resolving the task and acting user from the path.
func (s *TaskService) transitionHandler(transition func(userID string, now func() time.Time, idGenerator func() (string, error)) task.TransitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn := transition(r.PathValue("userID"), s.clock, s.newID)
		updated, err := s.store.ApplyTaskTransition(r.Context(), r.PathValue("id"), fn)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTaskPayload(updated))
	}
}
