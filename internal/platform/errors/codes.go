// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound indicates a requested record does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeReferenceNotFound indicates a referenced organization or user
	// does not resolve to an existing record.
	CodeReferenceNotFound Code = "REFERENCE_NOT_FOUND"

	// Task errors
	CodeTaskTitleEmpty    Code = "TASK_TITLE_EMPTY"
	CodeTaskNotApplicable Code = "TASK_TRANSITION_NOT_APPLICABLE"

	// User errors
	CodeUserNameEmpty  Code = "USER_NAME_EMPTY"
	CodeUserEmailEmpty Code = "USER_EMAIL_EMPTY"
	CodeUserEmailTaken Code = "USER_EMAIL_TAKEN"

	// Organization errors
	CodeOrganizationNameEmpty Code = "ORGANIZATION_NAME_EMPTY"

	// Invitation errors
	CodeInvitationEmailEmpty    Code = "INVITATION_EMAIL_EMPTY"
	CodeInvitationNotApplicable Code = "INVITATION_NOT_APPLICABLE"
)

// HTTPStatus maps an error code to the HTTP status the API surface returns.
//
// The mapping keeps the three caller-visible failure kinds distinct: bad
// input resolves to 400, business-rule rejections to 409, and missing
// records to 404. Everything else is an infrastructure failure.
func (c Code) HTTPStatus() int {
	switch c {

	// Bad input: the caller supplied a value that cannot be acted on.
	case CodeReferenceNotFound,
		CodeTaskTitleEmpty,
		CodeUserNameEmpty,
		CodeUserEmailEmpty,
		CodeOrganizationNameEmpty,
		CodeInvitationEmailEmpty:
		return http.StatusBadRequest

	// Business-rule rejection: the record exists but the requested
	// operation is illegal in its current state.
	case CodeTaskNotApplicable,
		CodeInvitationNotApplicable,
		CodeUserEmailTaken:
		return http.StatusConflict

	// Missing record.
	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
