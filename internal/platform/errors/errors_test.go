package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestErrorMatchesByCode(t *testing.T) {
	base := New(CodeTaskNotApplicable, "task is not uncompleted")
	other := New(CodeTaskNotApplicable, "task already assigned")

	if !stderrors.Is(other, base) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(New(CodeNotFound, "missing"), base) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist task", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "persist task" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWithMetadata(t *testing.T) {
	err := WithMetadata(CodeReferenceNotFound, "organization not found", map[string]string{
		"organization_id": "org-1",
	})
	if err.Metadata["organization_id"] != "org-1" {
		t.Fatalf("unexpected metadata: %+v", err.Metadata)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeReferenceNotFound, http.StatusBadRequest},
		{CodeTaskTitleEmpty, http.StatusBadRequest},
		{CodeTaskNotApplicable, http.StatusConflict},
		{CodeInvitationNotApplicable, http.StatusConflict},
		{CodeUserEmailTaken, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnknown, http.StatusInternalServerError},
		{Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}
