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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell-cms/inkwell/internal/id"
	"github.com/inkwell-cms/inkwell/internal/observability/logger"
	"github.com/inkwell-cms/inkwell/internal/observability/metrics"
)

// Workflow runs the request/approve/reject lifecycle of role assignments.
//
//	PENDING --approve--> ACTIVE --remove--> (deleted)
//	PENDING --reject---> REJECTED
//
// A row leaves PENDING at most once. Losing a concurrent approve/reject
// yields an already-processed error carrying the winner's status.
type Workflow struct {
	roles       RoleRepository
	assignments AssignmentRepository
	inst        *instruments
	now         func() time.Time
}

// NewWorkflow creates a new assignment workflow. meter may be nil.
func NewWorkflow(roles RoleRepository, assignments AssignmentRepository, meter *metrics.Meter) *Workflow {
	return &Workflow{
		roles:       roles,
		assignments: assignments,
		inst:        newInstruments(meter),
		now:         time.Now,
	}
}

// RequestRole opens a PENDING request of roleID for userID
func (w *Workflow) RequestRole(ctx context.Context, userID, roleID string) (*Assignment, error) {
	ctx, span := tracer.Start(ctx, "authz.Workflow.RequestRole")
	defer span.End()

	if userID == "" {
		return nil, errInvalidInput("user id is required")
	}
	role, err := w.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, roleReadError(err, roleID)
	}

	if err := w.ensureNone(ctx, userID, roleID, StatusActive); err != nil {
		return nil, err
	}
	if err := w.ensureNone(ctx, userID, roleID, StatusPending); err != nil {
		return nil, err
	}

	a := &Assignment{
		ID:          id.NewUUIDv7(),
		UserID:      userID,
		RoleID:      roleID,
		Status:      StatusPending,
		RequestedAt: w.now(),
	}
	if err := w.assignments.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, ErrRoleNotFound):
			return nil, errRoleNotFound(roleID)
		case errors.Is(err, ErrUserNotFound):
			return nil, errUserNotFound(userID)
		}
		return nil, assignmentWriteError(err)
	}
	a.Role = role

	w.inst.transition(ctx, StatusPending)
	slog.InfoContext(ctx, "role requested",
		logger.AssignmentID(a.ID), logger.UserID(userID), logger.RoleID(roleID))
	return a, nil
}

// ListPending returns open requests, newest first
func (w *Workflow) ListPending(ctx context.Context) ([]*Assignment, error) {
	out, err := w.assignments.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return out, nil
}

// ListForUser returns every assignment of the user, newest request first
func (w *Workflow) ListForUser(ctx context.Context, userID string) ([]*Assignment, error) {
	out, err := w.assignments.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user requests: %w", err)
	}
	return out, nil
}

// ListActiveForUser returns the user's active grants, most recent approval first
func (w *Workflow) ListActiveForUser(ctx context.Context, userID string) ([]*Assignment, error) {
	out, err := w.assignments.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	return out, nil
}

// Approve activates a pending request
func (w *Workflow) Approve(ctx context.Context, requestID, approverID string) (*Assignment, error) {
	ctx, span := tracer.Start(ctx, "authz.Workflow.Approve")
	defer span.End()

	return w.transition(ctx, requestID, Transition{
		To:    StatusActive,
		Actor: approverID,
		At:    w.now(),
	})
}

// Reject closes a pending request with an optional reason
func (w *Workflow) Reject(ctx context.Context, requestID, rejecterID, reason string) (*Assignment, error) {
	ctx, span := tracer.Start(ctx, "authz.Workflow.Reject")
	defer span.End()

	return w.transition(ctx, requestID, Transition{
		To:     StatusRejected,
		Actor:  rejecterID,
		At:     w.now(),
		Reason: strings.TrimSpace(reason),
	})
}

// RemoveAssignment deletes the active grant of roleID from userID
func (w *Workflow) RemoveAssignment(ctx context.Context, userID, roleID, actorID string) error {
	ctx, span := tracer.Start(ctx, "authz.Workflow.RemoveAssignment")
	defer span.End()

	if err := w.assignments.DeleteActive(ctx, userID, roleID); err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return errAssignmentNotFound(userID, roleID)
		}
		return fmt.Errorf("failed to remove assignment: %w", err)
	}

	slog.InfoContext(ctx, "role removed",
		logger.UserID(userID), logger.RoleID(roleID), logger.ActorID(actorID))
	return nil
}

func (w *Workflow) transition(ctx context.Context, requestID string, t Transition) (*Assignment, error) {
	current, err := w.assignments.GetByID(ctx, requestID)
	if err != nil {
		return nil, requestReadError(err, requestID)
	}
	if current.Status != StatusPending {
		return nil, errAlreadyProcessed(current.Status)
	}

	updated, err := w.assignments.Transition(ctx, requestID, t)
	if errors.Is(err, ErrNotPending) {
		latest, rerr := w.assignments.GetByID(ctx, requestID)
		if rerr != nil {
			return nil, requestReadError(rerr, requestID)
		}
		return nil, errAlreadyProcessed(latest.Status)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrAssignmentNotFound):
			return nil, errRequestNotFound(requestID)
		case errors.Is(err, ErrUserNotFound):
			return nil, errUserNotFound(t.Actor)
		}
		return nil, assignmentWriteError(err)
	}

	w.inst.transition(ctx, t.To)
	slog.InfoContext(ctx, "role request processed",
		logger.AssignmentID(updated.ID),
		logger.UserID(updated.UserID),
		logger.RoleID(updated.RoleID),
		logger.AssignmentStatus(string(updated.Status)),
		logger.ActorID(t.Actor),
	)
	return updated, nil
}

func (w *Workflow) ensureNone(ctx context.Context, userID, roleID string, status Status) error {
	_, err := w.assignments.Find(ctx, userID, roleID, status)
	if errors.Is(err, ErrAssignmentNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing assignment: %w", err)
	}
	if status == StatusActive {
		return errAlreadyActive()
	}
	return errRequestAlreadyPending()
}

func requestReadError(err error, requestID string) error {
	if errors.Is(err, ErrAssignmentNotFound) {
		return errRequestNotFound(requestID)
	}
	return fmt.Errorf("failed to get role request: %w", err)
}

func assignmentWriteError(err error) error {
	switch {
	case errors.Is(err, ErrPendingExists):
		return errRequestAlreadyPending()
	case errors.Is(err, ErrActiveExists):
		return errAlreadyActive()
	}
	return fmt.Errorf("failed to save assignment: %w", err)
}
