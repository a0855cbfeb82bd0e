package apierror

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"net/http"
	"strings"
)

// ErrorResponse abstracts all API error responses to the client.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedJSONError  = NewSimple(400, "Malformed JSON body")
	InternalServerError = NewSimple(500, "Internal server error")

	NotFoundError        = NewSimple(404, "Resource not found")
	InvalidIDError       = NewSimple(400, "The provided ID is invalid, IDs are usually int64 > 0")
	UnauthorizedError    = NewSimple(401, "Missing or invalid credentials")
	InvalidCNJError      = NewSimple(400, "Process number does not match the CNJ format NNNNNNN-DD.YYYY.J.TR.OOOO")
	ArchivedProcessError = NewSimple(409, "Process is archived and no longer accepts updates")

	/*
	 * Used by the security gate
	 */
	TokenBlockedError     = NewSimple(403, "Token is blocked")
	TokenExpiredError     = NewSimple(401, "Token has expired")
	TokenInactiveError    = NewSimple(401, "Token is not active")
	IPBlockedError        = NewSimple(403, "Source address is not allowed")
	RateLimitedError      = NewSimple(429, "Rate limit exceeded for this token")
	NotEntitledError      = NewSimple(403, "Client is not entitled to this service")
	UnknownActionError    = NewSimple(400, "Unknown action, supported actions: confirm")
	NothingToConfirmError = NewSimple(404, "No unconfirmed delivery found for this token and domain")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "cnj":
			problems[field] = append(problems[field], "Value must be a CNJ process number (NNNNNNN-DD.YYYY.J.TR.OOOO)")
		case "oneof":
			problems[field] = append(problems[field], "Value must be one of: "+fe.Param())
		case "url":
			problems[field] = append(problems[field], "Value must be a valid URL")
		case "nodupes":
			problems[field] = append(problems[field], "Values must not repeat")
		case "nospaces":
			problems[field] = append(problems[field], "Value must not contain whitespace")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewInvalidIncludeError(include string, valid []string) *APIError {
	return NewSimple(http.StatusBadRequest, "Unknown include '%s', supported: %s", include, strings.Join(valid, ", "))
}
