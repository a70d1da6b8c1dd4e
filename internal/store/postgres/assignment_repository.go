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
	"time"

	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/jackc/pgx/v5"
)

// selectAssignment joins the role and the display summaries of the
// requesting, approving and rejecting users.
const selectAssignment = `
	SELECT ur.id, ur.user_id, ur.role_id, ur.status, ur.requested_at,
	       ur.approved_at, COALESCE(ur.approved_by, ''),
	       ur.rejected_at, COALESCE(ur.rejected_by, ''), ur.rejection_reason,
	       r.id, r.name, r.slug, r.description, r.permissions, r.created_at, r.updated_at,
	       COALESCE(u.email, ''), COALESCE(u.name, ''),
	       COALESCE(a.email, ''), COALESCE(a.name, ''),
	       COALESCE(j.email, ''), COALESCE(j.name, '')
	FROM user_roles ur
	JOIN roles r ON r.id = ur.role_id
	LEFT JOIN users u ON u.id = ur.user_id
	LEFT JOIN users a ON a.id = ur.approved_by
	LEFT JOIN users j ON j.id = ur.rejected_by
`

// AssignmentRepository implements authz.AssignmentRepository
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment in whatever status it carries
func (r *AssignmentRepository) Create(ctx context.Context, a *authz.Assignment) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO user_roles (
			id, user_id, role_id, status, requested_at, approved_at, approved_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.UserID, a.RoleID, string(a.Status), a.RequestedAt, a.ApprovedAt, nullable(a.ApprovedBy))
	if err != nil {
		return assignmentConstraintError(err, "create")
	}
	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*authz.Assignment, error) {
	return getAssignment(ctx, r.db.pool, id)
}

// Find returns the assignment of (userID, roleID) in status
func (r *AssignmentRepository) Find(ctx context.Context, userID, roleID string, status authz.Status) (*authz.Assignment, error) {
	row := r.db.pool.QueryRow(ctx, selectAssignment+`
		WHERE ur.user_id = $1 AND ur.role_id = $2 AND ur.status = $3
		ORDER BY ur.requested_at DESC
		LIMIT 1
	`, userID, roleID, string(status))

	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return a, nil
}

// ListByStatus returns assignments in status, newest request first
func (r *AssignmentRepository) ListByStatus(ctx context.Context, status authz.Status) ([]*authz.Assignment, error) {
	return r.list(ctx, selectAssignment+`
		WHERE ur.status = $1
		ORDER BY ur.requested_at DESC, ur.id DESC
	`, string(status))
}

// ListForUser returns the user's full history, newest request first
func (r *AssignmentRepository) ListForUser(ctx context.Context, userID string) ([]*authz.Assignment, error) {
	return r.list(ctx, selectAssignment+`
		WHERE ur.user_id = $1
		ORDER BY ur.requested_at DESC, ur.id DESC
	`, userID)
}

// ListActiveForUser returns the user's active grants, most recent approval first
func (r *AssignmentRepository) ListActiveForUser(ctx context.Context, userID string) ([]*authz.Assignment, error) {
	return r.list(ctx, selectAssignment+`
		WHERE ur.user_id = $1 AND ur.status = 'ACTIVE'
		ORDER BY ur.approved_at DESC NULLS LAST, ur.id DESC
	`, userID)
}

// Transition moves a PENDING assignment with a conditional update, then
// reads the joined row back inside the same transaction. READ COMMITTED
// lets a concurrent loser see zero affected rows instead of a
// serialization failure.
func (r *AssignmentRepository) Transition(ctx context.Context, id string, t authz.Transition) (*authz.Assignment, error) {
	var query string
	var args []any
	switch t.To {
	case authz.StatusActive:
		query = `
			UPDATE user_roles
			SET status = 'ACTIVE', approved_at = $2, approved_by = $3
			WHERE id = $1 AND status = 'PENDING'
		`
		args = []any{id, t.At, nullable(t.Actor)}
	case authz.StatusRejected:
		query = `
			UPDATE user_roles
			SET status = 'REJECTED', rejected_at = $2, rejected_by = $3, rejection_reason = $4
			WHERE id = $1 AND status = 'PENDING'
		`
		args = []any{id, t.At, nullable(t.Actor), t.Reason}
	default:
		return nil, fmt.Errorf("unsupported transition to %s", t.To)
	}

	var out *authz.Assignment
	err := r.db.WithTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return assignmentConstraintError(err, "update")
		}
		if result.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_roles WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check assignment: %w", err)
			}
			if !exists {
				return authz.ErrAssignmentNotFound
			}
			return authz.ErrNotPending
		}
		out, err = getAssignment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteActive removes the active grant of roleID from userID
func (r *AssignmentRepository) DeleteActive(ctx context.Context, userID, roleID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = $2 AND status = 'ACTIVE'
	`, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrAssignmentNotFound
	}
	return nil
}

// CountByRole counts assignments of roleID in status
func (r *AssignmentRepository) CountByRole(ctx context.Context, roleID string, status authz.Status) (int, error) {
	var n int64
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_roles WHERE role_id = $1 AND status = $2
	`, roleID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return int(n), nil
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]*authz.Assignment, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	out := make([]*authz.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return out, nil
}

func getAssignment(ctx context.Context, q querier, id string) (*authz.Assignment, error) {
	a, err := scanAssignment(q.QueryRow(ctx, selectAssignment+` WHERE ur.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func scanAssignment(row pgx.Row) (*authz.Assignment, error) {
	var (
		a                           authz.Assignment
		role                        authz.Role
		status                      string
		approvedAt, rejectedAt      *time.Time
		userEmail, userName         string
		approverEmail, approverName string
		rejecterEmail, rejecterName string
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.RoleID, &status, &a.RequestedAt,
		&approvedAt, &a.ApprovedBy,
		&rejectedAt, &a.RejectedBy, &a.RejectionReason,
		&role.ID, &role.Name, &role.Slug, &role.Description, &role.Permissions, &role.CreatedAt, &role.UpdatedAt,
		&userEmail, &userName,
		&approverEmail, &approverName,
		&rejecterEmail, &rejecterName,
	); err != nil {
		return nil, err
	}

	a.Status = authz.Status(status)
	a.ApprovedAt = approvedAt
	a.RejectedAt = rejectedAt
	role.Permissions = nonNil(role.Permissions)
	a.Role = &role
	a.User = &authz.UserSummary{ID: a.UserID, Email: userEmail, Name: userName}
	if a.ApprovedBy != "" {
		a.Approver = &authz.UserSummary{ID: a.ApprovedBy, Email: approverEmail, Name: approverName}
	}
	if a.RejectedBy != "" {
		a.Rejecter = &authz.UserSummary{ID: a.RejectedBy, Email: rejecterEmail, Name: rejecterName}
	}
	return &a, nil
}

func assignmentConstraintError(err error, op string) error {
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case "user_roles_pending_key":
			return authz.ErrPendingExists
		case "user_roles_active_key":
			return authz.ErrActiveExists
		}
	}
	if constraint, ok := foreignKeyConstraint(err); ok {
		switch constraint {
		case "user_roles_role_id_fkey":
			return authz.ErrRoleNotFound
		case "user_roles_user_id_fkey", "user_roles_approved_by_fkey", "user_roles_rejected_by_fkey":
			return authz.ErrUserNotFound
		}
	}
	return fmt.Errorf("failed to %s assignment: %w", op, err)
}

// nullable maps "" to SQL NULL for optional user references
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
