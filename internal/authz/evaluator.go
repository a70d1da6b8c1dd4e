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
	"context"
	"fmt"
	"log/slog"

	"github.com/inkwell-cms/inkwell/internal/observability/logger"
)

// Evaluator answers permission questions from a user's active role grants
type Evaluator struct {
	assignments AssignmentRepository
}

// NewEvaluator creates a new access evaluator
func NewEvaluator(assignments AssignmentRepository) *Evaluator {
	return &Evaluator{assignments: assignments}
}

// HasPermission reports whether any active role of the user grants permission
func (e *Evaluator) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	return e.HasAnyPermission(ctx, userID, []string{permission})
}

// HasAnyPermission reports whether the user holds at least one of required.
// An empty required list is never satisfied.
func (e *Evaluator) HasAnyPermission(ctx context.Context, userID string, required []string) (bool, error) {
	if len(required) == 0 {
		return false, nil
	}
	granted, err := e.granted(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, req := range required {
		if satisfiedBy(granted, req) {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether the user holds every entry of required.
// An empty required list is vacuously satisfied.
func (e *Evaluator) HasAllPermissions(ctx context.Context, userID string, required []string) (bool, error) {
	if len(required) == 0 {
		return true, nil
	}
	granted, err := e.granted(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, req := range required {
		if !satisfiedBy(granted, req) {
			return false, nil
		}
	}
	return true, nil
}

// EffectivePermissions returns the distinct permission strings granted to the
// user, in the order their roles were most recently approved.
func (e *Evaluator) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	granted, err := e.granted(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(granted))
	for _, p := range granted {
		out = append(out, p.String())
	}
	return out, nil
}

// granted loads the user's active roles once and parses their permissions,
// dropping duplicates and stored strings that no longer parse.
func (e *Evaluator) granted(ctx context.Context, userID string) ([]Permission, error) {
	if userID == "" {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "authz.Evaluator.granted")
	defer span.End()

	active, err := e.assignments.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active roles: %w", err)
	}

	seen := make(map[string]struct{})
	var out []Permission
	for _, a := range active {
		if a.Role == nil {
			continue
		}
		for _, raw := range a.Role.Permissions {
			if _, dup := seen[raw]; dup {
				continue
			}
			seen[raw] = struct{}{}
			p, err := Parse(raw)
			if err != nil {
				slog.WarnContext(ctx, "ignoring malformed stored permission",
					logger.RoleID(a.Role.ID), logger.Permission(raw))
				continue
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func satisfiedBy(granted []Permission, required string) bool {
	for _, p := range granted {
		if p.Satisfies(required) {
			return true
		}
	}
	return false
}
