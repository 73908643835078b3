package keycloak

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Nerzal/gocloak/v13"
)

// AuthError indicates the admin credentials were rejected. It is fatal;
// retrying with the same credentials cannot succeed.
type AuthError struct {
	Operation string
	Err       error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed during %s: %v", e.Operation, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError indicates a referenced realm, client, group, or role does
// not exist on the server.
type NotFoundError struct {
	Kind string
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q not found: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("%s not found: %v", e.Kind, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ConflictError indicates a create collided with an existing object of the
// same identifier. For state=present callers treat it as already satisfied.
type ConflictError struct {
	Kind string
	Name string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists: %v", e.Kind, e.Name, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var cf *ConflictError
	return errors.As(err, &cf)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// classify maps a gocloak API error onto the taxonomy. Kind and name
// describe the resource the operation targeted; errors that do not carry
// a recognized status code pass through unchanged.
func classify(kind, name string, err error) error {
	if err == nil {
		return nil
	}

	switch statusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Operation: kind, Err: err}
	case http.StatusNotFound:
		return &NotFoundError{Kind: kind, Name: name, Err: err}
	case http.StatusConflict:
		return &ConflictError{Kind: kind, Name: name, Err: err}
	}
	return err
}

func statusCode(err error) int {
	var pErr *gocloak.APIError
	if errors.As(err, &pErr) {
		return pErr.Code
	}
	var vErr gocloak.APIError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	return 0
}
