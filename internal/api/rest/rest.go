// Package rest exposes the task, user, organization, and invitation
// operations as a JSON HTTP API.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
	"github.com/louisbranch/taskhub/internal/platform/id"
)

// maxBodyBytes bounds request bodies; payloads here are small JSON documents.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError maps a failure to its HTTP status. Structured errors carry
// their own code; anything else is an infrastructure failure whose
// detail stays out of the response.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Code.HTTPStatus(), errorResponse{
			Code:  string(appErr.Code),
			Error: appErr.Message,
		})
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:  string(apperrors.CodeUnknown),
		Error: "internal error",
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeBadRequest reports a malformed request body with a 400 instead of
// the generic mapping, which would treat decode failures as internal.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:  string(apperrors.CodeUnknown),
		Error: fmt.Sprintf("invalid request body: %v", err),
	})
}

func defaultClock(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}

func defaultIDGenerator(gen func() (string, error)) func() (string, error) {
	if gen == nil {
		return id.NewID
	}
	return gen
}
