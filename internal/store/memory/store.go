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

// Package memory is an in-process implementation of the authz repositories.
// A single mutex serialises every operation, so each call is atomic in the
// same way a single SQL statement is.
package memory

import (
	"sort"
	"sync"

	"github.com/inkwell-cms/inkwell/internal/authz"
)

// Store holds roles, assignments and user summaries
type Store struct {
	mu          sync.RWMutex
	seq         int64
	roles       map[string]*authz.Role
	roleSeq     map[string]int64
	assignments map[string]*authz.Assignment
	assignSeq   map[string]int64
	users       map[string]authz.UserSummary
}

// New creates an empty store
func New() *Store {
	return &Store{
		roles:       make(map[string]*authz.Role),
		roleSeq:     make(map[string]int64),
		assignments: make(map[string]*authz.Assignment),
		assignSeq:   make(map[string]int64),
		users:       make(map[string]authz.UserSummary),
	}
}

// Roles returns the role repository view of the store
func (s *Store) Roles() *RoleRepository {
	return &RoleRepository{s: s}
}

// Assignments returns the assignment repository view of the store
func (s *Store) Assignments() *AssignmentRepository {
	return &AssignmentRepository{s: s}
}

// PutUser records the display summary of a user
func (s *Store) PutUser(u authz.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func (s *Store) summary(userID string) *authz.UserSummary {
	if userID == "" {
		return nil
	}
	u, ok := s.users[userID]
	if !ok {
		u = authz.UserSummary{ID: userID}
	}
	return &u
}

// hydrate copies a and attaches its role and user summaries
func (s *Store) hydrate(a *authz.Assignment) *authz.Assignment {
	out := *a
	if r, ok := s.roles[a.RoleID]; ok {
		out.Role = cloneRole(r)
	}
	out.User = s.summary(a.UserID)
	out.Approver = s.summary(a.ApprovedBy)
	out.Rejecter = s.summary(a.RejectedBy)
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		out.ApprovedAt = &t
	}
	if a.RejectedAt != nil {
		t := *a.RejectedAt
		out.RejectedAt = &t
	}
	return &out
}

// sortAssignments orders newest first by key, breaking ties by insertion order
func (s *Store) sortAssignments(list []*authz.Assignment, key func(*authz.Assignment) int64) {
	sort.SliceStable(list, func(i, j int) bool {
		ki, kj := key(list[i]), key(list[j])
		if ki != kj {
			return ki > kj
		}
		return s.assignSeq[list[i].ID] > s.assignSeq[list[j].ID]
	})
}

func cloneRole(r *authz.Role) *authz.Role {
	out := *r
	out.Permissions = append([]string(nil), r.Permissions...)
	if out.Permissions == nil {
		out.Permissions = []string{}
	}
	return &out
}

// Users returns the user directory view of the store
func (s *Store) Users() *UserDirectory {
	return &UserDirectory{s: s}
}
