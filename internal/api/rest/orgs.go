package rest

import (
	"net/http"
	"time"

	"github.com/louisbranch/taskhub/internal/org"
	"github.com/louisbranch/taskhub/internal/storage"
)

// OrganizationService handles the organization routes. It also serves
// the organization-scoped member and task listings, so it holds the
// neighboring stores.
type OrganizationService struct {
	store storage.OrganizationStore
	users storage.UserStore
	tasks storage.TaskStore
	clock func() time.Time
	newID func() (string, error)
}

// NewOrganizationService wires the organization routes to the given
// stores. clock and idGenerator may be nil for the production defaults.
func NewOrganizationService(store storage.OrganizationStore, users storage.UserStore, tasks storage.TaskStore, clock func() time.Time, idGenerator func() (string, error)) *OrganizationService {
	return &OrganizationService{
		store: store,
		users: users,
		tasks: tasks,
		clock: defaultClock(clock),
		newID: defaultIDGenerator(idGenerator),
	}
}

// RegisterRoutes mounts the organization routes on mux.
func (s *OrganizationService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/organizations", s.handleCreate)
	mux.HandleFunc("GET /api/organizations", s.handleList)
	mux.HandleFunc("GET /api/organizations/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/organizations/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/organizations/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/organizations/{id}/users", s.handleListMembers)
	mux.HandleFunc("GET /api/organizations/{id}/tasks", s.handleListTasks)
}

type organizationPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toOrganizationPayload(o org.Organization) organizationPayload {
	return organizationPayload{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		OwnerID:     o.OwnerID,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

type createOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`
}

func (s *OrganizationService) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, err := org.Create(org.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
	}, s.clock, s.newID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.CreateOrganization(r.Context(), created); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationPayload(created))
}

func (s *OrganizationService) handleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.store.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	payloads := make([]organizationPayload, 0, len(orgs))
	for _, o := range orgs {
		payloads = append(payloads, toOrganizationPayload(o))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *OrganizationService) handleGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.GetOrganization(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationPayload(o))
}

type updateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	OwnerID     *string `json:"ownerId"`
}

func (s *OrganizationService) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	updated, err := s.store.UpdateOrganization(r.Context(), r.PathValue("id"), org.Patch{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
	}, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationPayload(updated))
}

func (s *OrganizationService) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteOrganization(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *OrganizationService) handleListMembers(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("id")
	if _, err := s.store.GetOrganization(r.Context(), orgID); err != nil {
		writeError(w, err)
		return
	}
	members, err := s.users.ListUsersByOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayloads(members))
}

func (s *OrganizationService) handleListTasks(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("id")
	if _, err := s.store.GetOrganization(r.Context(), orgID); err != nil {
		writeError(w, err)
		return
	}
	tasks, err := s.tasks.ListTasksByOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayloads(tasks))
}
