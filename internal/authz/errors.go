// Copyright 2026 The Inkwell Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authz

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error wraps exactly one of these, so callers branch
// with errors.Is(err, authz.ErrConflict) and friends.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeRoleNotFound          Code = "role_not_found"
	CodeRequestNotFound       Code = "request_not_found"
	CodeAssignmentNotFound    Code = "assignment_not_found"
	CodeUserNotFound          Code = "user_not_found"
	CodeDuplicateSlug         Code = "duplicate_slug"
	CodeDuplicateName         Code = "duplicate_name"
	CodeAlreadyActive         Code = "already_active"
	CodeRequestAlreadyPending Code = "request_already_pending"
	CodeRoleInUse             Code = "role_in_use"
	CodeInvalidPermission     Code = "invalid_permission"
	CodeInvalidSlug           Code = "invalid_slug"
	CodeInvalidInput          Code = "invalid_input"
	CodeAlreadyProcessed      Code = "already_processed"
	CodeForbidden             Code = "forbidden"
	CodeUnauthenticated       Code = "unauthenticated"
)

// Error is a domain failure with a kind, a code and a caller-facing message.
type Error struct {
	Kind    error
	Code    Code
	Message string

	// Status is the current status for CodeAlreadyProcessed.
	Status Status
	// Count is the number of active assignments for CodeRoleInUse.
	Count int
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(kind error, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func errRoleNotFound(token string) *Error {
	return newError(ErrNotFound, CodeRoleNotFound, "role %q not found", token)
}

func errRequestNotFound(id string) *Error {
	return newError(ErrNotFound, CodeRequestNotFound, "role request %q not found", id)
}

func errAssignmentNotFound(userID, roleID string) *Error {
	return newError(ErrNotFound, CodeAssignmentNotFound, "user %q has no active role %q", userID, roleID)
}

func errUserNotFound(userID string) *Error {
	return newError(ErrNotFound, CodeUserNotFound, "user %q not found", userID)
}

func errDuplicateSlug(slug string) *Error {
	return newError(ErrConflict, CodeDuplicateSlug, "role with slug %q already exists", slug)
}

func errDuplicateName(name string) *Error {
	return newError(ErrConflict, CodeDuplicateName, "role with name %q already exists", name)
}

func errAlreadyActive() *Error {
	return newError(ErrConflict, CodeAlreadyActive, "user already has this role")
}

func errRequestAlreadyPending() *Error {
	return newError(ErrConflict, CodeRequestAlreadyPending, "a request for this role is already pending")
}

func errRoleInUse(count int) *Error {
	e := newError(ErrConflict, CodeRoleInUse, "cannot delete role: %d user(s) still hold it", count)
	e.Count = count
	return e
}

func errInvalidPermission(p string) *Error {
	return newError(ErrInvalidInput, CodeInvalidPermission,
		"invalid permission format %q: expected \"*\", \"resource:*\" or \"resource:action\"", p)
}

func errInvalidSlug(slug string) *Error {
	return newError(ErrInvalidInput, CodeInvalidSlug,
		"invalid slug %q: use lowercase letters, digits and single hyphens", slug)
}

func errInvalidInput(format string, args ...any) *Error {
	return newError(ErrInvalidInput, CodeInvalidInput, format, args...)
}

func errAlreadyProcessed(status Status) *Error {
	e := newError(ErrAlreadyProcessed, CodeAlreadyProcessed,
		"request has already been processed (current status: %s)", status)
	e.Status = status
	return e
}

func errForbidden() *Error {
	return newError(ErrForbidden, CodeForbidden, "insufficient permissions")
}

func errUnauthenticated() *Error {
	return newError(ErrUnauthenticated, CodeUnauthenticated, "authentication required")
}
