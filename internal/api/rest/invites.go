package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/louisbranch/taskhub/internal/invite"
	"github.com/louisbranch/taskhub/internal/storage"
	"github.com/louisbranch/taskhub/internal/user"
)

// InvitationService handles the invitation routes. It holds the user
// store to refuse inviting an email that already belongs to an active
// account and to register accepted invitees.
type InvitationService struct {
	store storage.InvitationStore
	users storage.UserStore
	clock func() time.Time
	newID func() (string, error)
}

// NewInvitationService wires the invitation routes to the given stores.
// clock and idGenerator may be nil for the production defaults.
func NewInvitationService(store storage.InvitationStore, users storage.UserStore, clock func() time.Time, idGenerator func() (string, error)) *InvitationService {
	return &InvitationService{
		store: store,
		users: users,
		clock: defaultClock(clock),
		newID: defaultIDGenerator(idGenerator),
	}
}

// RegisterRoutes mounts the invitation routes on mux.
func (s *InvitationService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/invitations", s.handleCreate)
	mux.HandleFunc("GET /api/invitations", s.handleList)
	mux.HandleFunc("GET /api/invitations/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/invitations/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/invitations/token/{token}", s.handleGetByToken)
	mux.HandleFunc("POST /api/invitations/accept/{token}", s.handleAccept)
	mux.HandleFunc("GET /api/invitations/organization/{orgID}", s.handleListByOrganization)
}

type invitationPayload struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Email          string     `json:"email"`
	InviterID      string     `json:"inviterId"`
	Role           string     `json:"role"`
	Token          string     `json:"token"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	AcceptedAt     *time.Time `json:"acceptedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toInvitationPayload(inv invite.Invitation) invitationPayload {
	return invitationPayload{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		InviterID:      inv.InviterID,
		Role:           string(inv.Role),
		Token:          inv.Token,
		ExpiresAt:      inv.ExpiresAt,
		AcceptedAt:     inv.AcceptedAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func toInvitationPayloads(invitations []invite.Invitation) []invitationPayload {
	payloads := make([]invitationPayload, 0, len(invitations))
	for _, inv := range invitations {
		payloads = append(payloads, toInvitationPayload(inv))
	}
	return payloads
}

type createInvitationRequest struct {
	OrganizationID string `json:"organizationId"`
	Email          string `json:"email"`
	InviterID      string `json:"inviterId"`
	Role           string `json:"role"`
}

func (s *InvitationService) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	built, err := invite.Create(invite.CreateInput{
		OrganizationID: req.OrganizationID,
		Email:          req.Email,
		InviterID:      req.InviterID,
		Role:           user.Role(req.Role),
	}, s.clock, s.newID)
	if err != nil {
		writeError(w, err)
		return
	}

	// GetUserByEmail only sees active accounts, so a deactivated
	// holder does not block a fresh invitation.
	_, err = s.users.GetUserByEmail(r.Context(), built.Email)
	switch {
	case err == nil:
		writeError(w, invite.ErrEmailInUse)
		return
	case !errors.Is(err, storage.ErrNotFound):
		writeError(w, err)
		return
	}

	stored, err := s.store.CreateInvitation(r.Context(), built, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvitationPayload(stored))
}

func (s *InvitationService) handleList(w http.ResponseWriter, r *http.Request) {
	invitations, err := s.store.ListInvitations(r.Context(), s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationPayloads(invitations))
}

func (s *InvitationService) handleGet(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.GetInvitation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationPayload(inv))
}

func (s *InvitationService) handleGetByToken(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.GetInvitationByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationPayload(inv))
}

func (s *InvitationService) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteInvitation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type acceptInvitationRequest struct {
	Name string `json:"name"`
}

type acceptInvitationResponse struct {
	Invitation invitationPayload `json:"invitation"`
	User       userPayload       `json:"user"`
}

func (s *InvitationService) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req acceptInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	token := r.PathValue("token")
	inv, err := s.store.GetInvitationByToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	// Email, organization, and role all come from the invitation row; the
	// request only names the new account.
	newUser, err := user.Create(user.CreateInput{
		Name:           req.Name,
		Email:          inv.Email,
		Role:           inv.Role,
		OrganizationID: inv.OrganizationID,
	}, s.clock, s.newID)
	if err != nil {
		writeError(w, err)
		return
	}

	// The store re-validates the token inside the transaction, so a
	// concurrent accept cannot redeem it twice.
	accepted, err := s.store.AcceptInvitation(r.Context(), token, newUser, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}

	joined, err := s.users.GetUser(r.Context(), newUser.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acceptInvitationResponse{
		Invitation: toInvitationPayload(accepted),
		User:       toUserPayload(joined),
	})
}

func (s *InvitationService) handleListByOrganization(w http.ResponseWriter, r *http.Request) {
	invitations, err := s.store.ListInvitationsByOrganization(r.Context(), r.PathValue("orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationPayloads(invitations))
}
