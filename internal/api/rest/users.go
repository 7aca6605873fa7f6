package rest

import (
	"net/http"
	"time"

	"github.com/louisbranch/taskhub/internal/storage"
	"github.com/louisbranch/taskhub/internal/user"
)

// UserService handles the member account routes.
type UserService struct {
	store storage.UserStore
	clock func() time.Time
	newID func() (string, error)
}

// NewUserService wires the user routes to the given store. clock and
// idGenerator may be nil for the production defaults.
func NewUserService(store storage.UserStore, clock func() time.Time, idGenerator func() (string, error)) *UserService {
	return &UserService{
		store: store,
		clock: defaultClock(clock),
		newID: defaultIDGenerator(idGenerator),
	}
}

// RegisterRoutes mounts the user routes on mux.
func (s *UserService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", s.handleCreate)
	mux.HandleFunc("GET /api/users", s.handleList)
	mux.HandleFunc("GET /api/users/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/users/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeactivate)
	mux.HandleFunc("PATCH /api/users/{id}/points", s.handleAdjustPoints)
	mux.HandleFunc("GET /api/users/email/{email}", s.handleGetByEmail)
	mux.HandleFunc("GET /api/users/organization/{orgID}", s.handleListByOrganization)
}

type userPayload struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	OrganizationID string    `json:"organizationId"`
	Points         int       `json:"points"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toUserPayload(u user.User) userPayload {
	return userPayload{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID,
		Points:         u.Points,
		Active:         u.Active,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toUserPayloads(users []user.User) []userPayload {
	payloads := make([]userPayload, 0, len(users))
	for _, u := range users {
		payloads = append(payloads, toUserPayload(u))
	}
	return payloads
}

type createUserRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId"`
}

func (s *UserService) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, err := user.Create(user.CreateInput{
		Name:           req.Name,
		Email:          req.Email,
		Role:           user.Role(req.Role),
		OrganizationID: req.OrganizationID,
	}, s.clock, s.newID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.CreateUser(r.Context(), created); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserPayload(created))
}

func (s *UserService) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayloads(users))
}

func (s *UserService) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(u))
}

func (s *UserService) handleListByOrganization(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsersByOrganization(r.Context(), r.PathValue("orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayloads(users))
}

func (s *UserService) handleGetByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUserByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(u))
}

type updateUserRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Role           *string `json:"role"`
	OrganizationID *string `json:"organizationId"`
	Active         *bool   `json:"active"`
}

func (s *UserService) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	patch := user.Patch{
		Name:           req.Name,
		Email:          req.Email,
		OrganizationID: req.OrganizationID,
		Active:         req.Active,
	}
	if req.Role != nil {
		role := user.Role(*req.Role)
		patch.Role = &role
	}

	updated, err := s.store.UpdateUser(r.Context(), r.PathValue("id"), patch, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(updated))
}

func (s *UserService) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeactivateUser(r.Context(), r.PathValue("id"), s.clock()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustPointsRequest struct {
	Delta int `json:"delta"`
}

func (s *UserService) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req adjustPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	userID := r.PathValue("id")
	if err := s.store.AwardPoints(r.Context(), userID, req.Delta, s.clock()); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(u))
}
