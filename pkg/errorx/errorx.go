package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code int

const (
	CodeUnknown Code = iota
	BadRequest
	MissingFields
	TooLong
	InvalidFollow
	Unauthorized
	InvalidCredentials
	Forbidden
	NotFound
	Conflict
	InvalidStatus
	InvalidCategoryID
	InvalidTags
	InvalidRole
)

var codeNames = map[Code]string{
	CodeUnknown:        "internal_error",
	BadRequest:         "bad_request",
	MissingFields:      "missing_fields",
	TooLong:            "too_long",
	InvalidFollow:      "invalid_follow",
	Unauthorized:       "unauthorized",
	InvalidCredentials: "invalid_credentials",
	Forbidden:          "forbidden",
	NotFound:           "not_found",
	Conflict:           "conflict",
	InvalidStatus:      "invalid_status",
	InvalidCategoryID:  "invalid_category_id",
	InvalidTags:        "invalid_tags",
	InvalidRole:        "invalid_role",
}

var codeStatus = map[Code]int{
	CodeUnknown:        http.StatusInternalServerError,
	BadRequest:         http.StatusBadRequest,
	MissingFields:      http.StatusBadRequest,
	TooLong:            http.StatusBadRequest,
	InvalidFollow:      http.StatusBadRequest,
	Unauthorized:       http.StatusUnauthorized,
	InvalidCredentials: http.StatusUnauthorized,
	Forbidden:          http.StatusForbidden,
	NotFound:           http.StatusNotFound,
	Conflict:           http.StatusConflict,
	InvalidStatus:      http.StatusUnprocessableEntity,
	InvalidCategoryID:  http.StatusUnprocessableEntity,
	InvalidTags:        http.StatusUnprocessableEntity,
	InvalidRole:        http.StatusUnprocessableEntity,
}

// String returns the wire name of the code, e.g. "not_found".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[CodeUnknown]
}

// HTTPStatus returns the status family the code maps to at the HTTP boundary.
func (c Code) HTTPStatus() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a domain failure that is safe to show to the caller.
type Error struct {
	Code    Code
	Message string
}

// Unknown is returned for unexpected failures. Details go to the log, not the caller.
var Unknown = Error{Code: CodeUnknown, Message: "Request failed"}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// From extracts an Error from err, falling back to Unknown.
func From(err error) Error {
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return Unknown
}
