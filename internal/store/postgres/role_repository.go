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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/jackc/pgx/v5"
)

const roleColumns = `id, name, slug, description, permissions, created_at, updated_at`

// RoleRepository implements authz.RoleRepository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create creates a new role
func (r *RoleRepository) Create(ctx context.Context, role *authz.Role) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO roles (`+roleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		role.ID, role.Name, role.Slug, role.Description, nonNil(role.Permissions),
		role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return roleConstraintError(err, "create")
	}
	return nil
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*authz.Role, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySlug retrieves a role by slug
func (r *RoleRepository) GetBySlug(ctx context.Context, slug string) (*authz.Role, error) {
	return r.getBy(ctx, "slug", slug)
}

// GetByName retrieves a role by name
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*authz.Role, error) {
	return r.getBy(ctx, "name", name)
}

// column is one of a fixed set of identifiers, never caller input
func (r *RoleRepository) getBy(ctx context.Context, column, value string) (*authz.Role, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE `+column+` = $1`, value)

	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// Update updates role information
func (r *RoleRepository) Update(ctx context.Context, role *authz.Role) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles
		SET name = $2, slug = $3, description = $4, permissions = $5, updated_at = $6
		WHERE id = $1
	`, role.ID, role.Name, role.Slug, role.Description, nonNil(role.Permissions), role.UpdatedAt)
	if err != nil {
		return roleConstraintError(err, "update")
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRoleNotFound
	}
	return nil
}

// Delete deletes a role; assignments go with it through ON DELETE CASCADE
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRoleNotFound
	}
	return nil
}

// List retrieves all roles, newest first, with their active user counts
func (r *RoleRepository) List(ctx context.Context) ([]*authz.RoleUsage, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT r.id, r.name, r.slug, r.description, r.permissions, r.created_at, r.updated_at,
		       COUNT(ur.id) FILTER (WHERE ur.status = 'ACTIVE')
		FROM roles r
		LEFT JOIN user_roles ur ON ur.role_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var out []*authz.RoleUsage
	for rows.Next() {
		var role authz.Role
		var active int64
		if err := rows.Scan(
			&role.ID, &role.Name, &role.Slug, &role.Description, &role.Permissions,
			&role.CreatedAt, &role.UpdatedAt, &active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		out = append(out, &authz.RoleUsage{Role: &role, ActiveUsers: int(active)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return out, nil
}

func scanRole(row pgx.Row) (*authz.Role, error) {
	var role authz.Role
	if err := row.Scan(
		&role.ID, &role.Name, &role.Slug, &role.Description, &role.Permissions,
		&role.CreatedAt, &role.UpdatedAt,
	); err != nil {
		return nil, err
	}
	role.Permissions = nonNil(role.Permissions)
	return &role, nil
}

func roleConstraintError(err error, op string) error {
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case "roles_slug_key":
			return authz.ErrSlugTaken
		case "roles_name_key":
			return authz.ErrNameTaken
		}
	}
	return fmt.Errorf("failed to %s role: %w", op, err)
}

// nonNil keeps permissions out of SQL NULL; a nil slice encodes as NULL
func nonNil(ps []string) []string {
	if ps == nil {
		return []string{}
	}
	return ps
}
