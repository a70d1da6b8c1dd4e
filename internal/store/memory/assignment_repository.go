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

package memory

import (
	"context"

	"github.com/inkwell-cms/inkwell/internal/authz"
)

// AssignmentRepository implements authz.AssignmentRepository
type AssignmentRepository struct {
	s *Store
}

// Create stores a new assignment in whatever status it carries
func (r *AssignmentRepository) Create(_ context.Context, a *authz.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[a.RoleID]; !ok {
		return authz.ErrRoleNotFound
	}
	if err := r.checkUnique(a.ID, a.UserID, a.RoleID, a.Status); err != nil {
		return err
	}

	stored := *a
	stored.Role, stored.User, stored.Approver, stored.Rejecter = nil, nil, nil, nil
	r.s.assignments[a.ID] = &stored
	r.s.assignSeq[a.ID] = r.s.next()
	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(_ context.Context, id string) (*authz.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, authz.ErrAssignmentNotFound
	}
	return r.s.hydrate(a), nil
}

// Find returns the assignment of (userID, roleID) in status
func (r *AssignmentRepository) Find(_ context.Context, userID, roleID string, status authz.Status) (*authz.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.assignments {
		if a.UserID == userID && a.RoleID == roleID && a.Status == status {
			return r.s.hydrate(a), nil
		}
	}
	return nil, authz.ErrAssignmentNotFound
}

// ListByStatus returns assignments in status, newest request first
func (r *AssignmentRepository) ListByStatus(_ context.Context, status authz.Status) ([]*authz.Assignment, error) {
	return r.list(func(a *authz.Assignment) bool { return a.Status == status }, byRequested), nil
}

// ListForUser returns the user's full history, newest request first
func (r *AssignmentRepository) ListForUser(_ context.Context, userID string) ([]*authz.Assignment, error) {
	return r.list(func(a *authz.Assignment) bool { return a.UserID == userID }, byRequested), nil
}

// ListActiveForUser returns the user's active grants, most recent approval first
func (r *AssignmentRepository) ListActiveForUser(_ context.Context, userID string) ([]*authz.Assignment, error) {
	return r.list(func(a *authz.Assignment) bool {
		return a.UserID == userID && a.Status == authz.StatusActive
	}, byApproved), nil
}

// Transition moves a PENDING assignment to t.To
func (r *AssignmentRepository) Transition(_ context.Context, id string, t authz.Transition) (*authz.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, authz.ErrAssignmentNotFound
	}
	if a.Status != authz.StatusPending {
		return nil, authz.ErrNotPending
	}
	if err := r.checkUnique(a.ID, a.UserID, a.RoleID, t.To); err != nil {
		return nil, err
	}

	at := t.At
	a.Status = t.To
	switch t.To {
	case authz.StatusActive:
		a.ApprovedAt = &at
		a.ApprovedBy = t.Actor
	case authz.StatusRejected:
		a.RejectedAt = &at
		a.RejectedBy = t.Actor
		a.RejectionReason = t.Reason
	}
	return r.s.hydrate(a), nil
}

// DeleteActive removes the active grant of roleID from userID
func (r *AssignmentRepository) DeleteActive(_ context.Context, userID, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, a := range r.s.assignments {
		if a.UserID == userID && a.RoleID == roleID && a.Status == authz.StatusActive {
			delete(r.s.assignments, id)
			delete(r.s.assignSeq, id)
			return nil
		}
	}
	return authz.ErrAssignmentNotFound
}

// CountByRole counts assignments of roleID in status
func (r *AssignmentRepository) CountByRole(_ context.Context, roleID string, status authz.Status) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, a := range r.s.assignments {
		if a.RoleID == roleID && a.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *AssignmentRepository) list(match func(*authz.Assignment) bool, key func(*authz.Assignment) int64) []*authz.Assignment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*authz.Assignment, 0)
	for _, a := range r.s.assignments {
		if match(a) {
			out = append(out, r.s.hydrate(a))
		}
	}
	r.s.sortAssignments(out, key)
	return out
}

// checkUnique emulates the partial unique indexes on PENDING and ACTIVE rows
func (r *AssignmentRepository) checkUnique(selfID, userID, roleID string, status authz.Status) error {
	if status == authz.StatusRejected {
		return nil
	}
	for _, other := range r.s.assignments {
		if other.ID == selfID || other.UserID != userID || other.RoleID != roleID || other.Status != status {
			continue
		}
		if status == authz.StatusActive {
			return authz.ErrActiveExists
		}
		return authz.ErrPendingExists
	}
	return nil
}

func byRequested(a *authz.Assignment) int64 {
	return a.RequestedAt.UnixNano()
}

func byApproved(a *authz.Assignment) int64 {
	if a.ApprovedAt == nil {
		return 0
	}
	return a.ApprovedAt.UnixNano()
}
