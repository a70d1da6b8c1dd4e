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
	"regexp"
	"strings"
	"time"

	"github.com/inkwell-cms/inkwell/internal/id"
	"github.com/inkwell-cms/inkwell/internal/observability/logger"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreateRoleInput carries the fields of a new role
type CreateRoleInput struct {
	Name        string
	Slug        string
	Description string
	Permissions []string
}

// RolePatch is a partial role update. Nil fields are left unchanged;
// a non-nil Permissions replaces the whole list.
type RolePatch struct {
	Name        *string
	Slug        *string
	Description *string
	Permissions []string
}

// Registry manages role definitions
type Registry struct {
	roles       RoleRepository
	assignments AssignmentRepository
	now         func() time.Time
}

// NewRegistry creates a new role registry
func NewRegistry(roles RoleRepository, assignments AssignmentRepository) *Registry {
	return &Registry{
		roles:       roles,
		assignments: assignments,
		now:         time.Now,
	}
}

// Create validates and stores a new role
func (r *Registry) Create(ctx context.Context, in CreateRoleInput) (*Role, error) {
	ctx, span := tracer.Start(ctx, "authz.Registry.Create")
	defer span.End()

	if strings.TrimSpace(in.Name) == "" {
		return nil, errInvalidInput("role name is required")
	}
	if err := validateSlug(in.Slug); err != nil {
		return nil, err
	}
	if err := r.ensureSlugFree(ctx, in.Slug, ""); err != nil {
		return nil, err
	}
	if err := r.ensureNameFree(ctx, in.Name, ""); err != nil {
		return nil, err
	}
	if err := ValidateAll(in.Permissions); err != nil {
		return nil, err
	}

	now := r.now()
	role := &Role{
		ID:          id.NewUUIDv7(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Permissions: clonePermissions(in.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.roles.Create(ctx, role); err != nil {
		return nil, roleWriteError(err, role)
	}

	slog.InfoContext(ctx, "role created", logger.RoleID(role.ID), logger.RoleSlug(role.Slug))
	return role, nil
}

// FindByID retrieves a role by its ID
func (r *Registry) FindByID(ctx context.Context, roleID string) (*Role, error) {
	role, err := r.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, roleReadError(err, roleID)
	}
	return role, nil
}

// FindBySlugOrID resolves token as an ID when it is shaped like one and as a slug otherwise
func (r *Registry) FindBySlugOrID(ctx context.Context, token string) (*Role, error) {
	if id.IsID(token) {
		return r.FindByID(ctx, token)
	}
	role, err := r.roles.GetBySlug(ctx, token)
	if err != nil {
		return nil, roleReadError(err, token)
	}
	return role, nil
}

// Usage resolves token like FindBySlugOrID and adds the role's active user count
func (r *Registry) Usage(ctx context.Context, token string) (*RoleUsage, error) {
	role, err := r.FindBySlugOrID(ctx, token)
	if err != nil {
		return nil, err
	}
	count, err := r.assignments.CountByRole(ctx, role.ID, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to count role holders: %w", err)
	}
	return &RoleUsage{Role: role, ActiveUsers: count}, nil
}

// List returns every role, newest first, with its active user count
func (r *Registry) List(ctx context.Context) ([]*RoleUsage, error) {
	roles, err := r.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// Update applies patch to the role identified by token
func (r *Registry) Update(ctx context.Context, token string, patch RolePatch) (*Role, error) {
	ctx, span := tracer.Start(ctx, "authz.Registry.Update")
	defer span.End()

	role, err := r.FindBySlugOrID(ctx, token)
	if err != nil {
		return nil, err
	}

	if patch.Slug != nil && *patch.Slug != role.Slug {
		if err := validateSlug(*patch.Slug); err != nil {
			return nil, err
		}
		if err := r.ensureSlugFree(ctx, *patch.Slug, role.ID); err != nil {
			return nil, err
		}
		role.Slug = *patch.Slug
	}
	if patch.Name != nil && *patch.Name != role.Name {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, errInvalidInput("role name must not be empty")
		}
		if err := r.ensureNameFree(ctx, *patch.Name, role.ID); err != nil {
			return nil, err
		}
		role.Name = *patch.Name
	}
	if patch.Description != nil {
		role.Description = *patch.Description
	}
	if patch.Permissions != nil {
		if err := ValidateAll(patch.Permissions); err != nil {
			return nil, err
		}
		role.Permissions = clonePermissions(patch.Permissions)
	}

	role.UpdatedAt = r.now()
	if err := r.roles.Update(ctx, role); err != nil {
		return nil, roleWriteError(err, role)
	}

	slog.InfoContext(ctx, "role updated", logger.RoleID(role.ID), logger.RoleSlug(role.Slug))
	return role, nil
}

// Remove deletes a role that no user actively holds.
// The count and the delete are separate statements; an approval landing
// between them is removed with the role.
func (r *Registry) Remove(ctx context.Context, token string) (*Role, error) {
	ctx, span := tracer.Start(ctx, "authz.Registry.Remove")
	defer span.End()

	role, err := r.FindBySlugOrID(ctx, token)
	if err != nil {
		return nil, err
	}

	count, err := r.assignments.CountByRole(ctx, role.ID, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to count role holders: %w", err)
	}
	if count > 0 {
		return nil, errRoleInUse(count)
	}

	if err := r.roles.Delete(ctx, role.ID); err != nil {
		return nil, roleReadError(err, token)
	}

	slog.InfoContext(ctx, "role deleted", logger.RoleID(role.ID), logger.RoleSlug(role.Slug))
	return role, nil
}

func (r *Registry) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := r.roles.GetBySlug(ctx, slug)
	if errors.Is(err, ErrRoleNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check role slug: %w", err)
	}
	if existing.ID != selfID {
		return errDuplicateSlug(slug)
	}
	return nil
}

func (r *Registry) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := r.roles.GetByName(ctx, name)
	if errors.Is(err, ErrRoleNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check role name: %w", err)
	}
	if existing.ID != selfID {
		return errDuplicateName(name)
	}
	return nil
}

// validateSlug rejects malformed slugs and slugs shaped like IDs, which
// FindBySlugOrID could never reach.
func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) || id.IsID(slug) {
		return errInvalidSlug(slug)
	}
	return nil
}

func clonePermissions(ps []string) []string {
	out := make([]string, len(ps))
	copy(out, ps)
	return out
}

func roleReadError(err error, token string) error {
	if errors.Is(err, ErrRoleNotFound) {
		return errRoleNotFound(token)
	}
	return fmt.Errorf("failed to get role: %w", err)
}

func roleWriteError(err error, role *Role) error {
	switch {
	case errors.Is(err, ErrSlugTaken):
		return errDuplicateSlug(role.Slug)
	case errors.Is(err, ErrNameTaken):
		return errDuplicateName(role.Name)
	case errors.Is(err, ErrRoleNotFound):
		return errRoleNotFound(role.ID)
	}
	return fmt.Errorf("failed to save role: %w", err)
}
