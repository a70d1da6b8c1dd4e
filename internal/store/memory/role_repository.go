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
	"sort"

	"github.com/inkwell-cms/inkwell/internal/authz"
)

// RoleRepository implements authz.RoleRepository
type RoleRepository struct {
	s *Store
}

// Create stores a new role
func (r *RoleRepository) Create(_ context.Context, role *authz.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUnique(role); err != nil {
		return err
	}
	r.s.roles[role.ID] = cloneRole(role)
	r.s.roleSeq[role.ID] = r.s.next()
	return nil
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(_ context.Context, id string) (*authz.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id]
	if !ok {
		return nil, authz.ErrRoleNotFound
	}
	return cloneRole(role), nil
}

// GetBySlug retrieves a role by slug
func (r *RoleRepository) GetBySlug(_ context.Context, slug string) (*authz.Role, error) {
	return r.find(func(role *authz.Role) bool { return role.Slug == slug })
}

// GetByName retrieves a role by name
func (r *RoleRepository) GetByName(_ context.Context, name string) (*authz.Role, error) {
	return r.find(func(role *authz.Role) bool { return role.Name == name })
}

// Update overwrites the mutable fields of a role
func (r *RoleRepository) Update(_ context.Context, role *authz.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.roles[role.ID]
	if !ok {
		return authz.ErrRoleNotFound
	}
	if err := r.checkUnique(role); err != nil {
		return err
	}
	updated := cloneRole(role)
	updated.CreatedAt = existing.CreatedAt
	r.s.roles[role.ID] = updated
	return nil
}

// Delete removes a role and every assignment that references it
func (r *RoleRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[id]; !ok {
		return authz.ErrRoleNotFound
	}
	delete(r.s.roles, id)
	delete(r.s.roleSeq, id)
	for aid, a := range r.s.assignments {
		if a.RoleID == id {
			delete(r.s.assignments, aid)
			delete(r.s.assignSeq, aid)
		}
	}
	return nil
}

// List returns all roles newest first with their active user counts
func (r *RoleRepository) List(_ context.Context) ([]*authz.RoleUsage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	active := make(map[string]int)
	for _, a := range r.s.assignments {
		if a.Status == authz.StatusActive {
			active[a.RoleID]++
		}
	}

	out := make([]*authz.RoleUsage, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, &authz.RoleUsage{Role: cloneRole(role), ActiveUsers: active[role.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.roleSeq[out[i].ID] > r.s.roleSeq[out[j].ID]
	})
	return out, nil
}

func (r *RoleRepository) find(match func(*authz.Role) bool) (*authz.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if match(role) {
			return cloneRole(role), nil
		}
	}
	return nil, authz.ErrRoleNotFound
}

// checkUnique emulates the slug and name unique constraints; caller holds the lock
func (r *RoleRepository) checkUnique(role *authz.Role) error {
	for _, other := range r.s.roles {
		if other.ID != role.ID && other.Slug == role.Slug {
			return authz.ErrSlugTaken
		}
	}
	for _, other := range r.s.roles {
		if other.ID != role.ID && other.Name == role.Name {
			return authz.ErrNameTaken
		}
	}
	return nil
}
