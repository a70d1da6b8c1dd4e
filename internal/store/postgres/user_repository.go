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

// UserRepository reads display summaries from the identity subsystem's users table
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user summary by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*authz.UserSummary, error) {
	return r.get(ctx, `SELECT id, email, name FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user summary by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*authz.UserSummary, error) {
	return r.get(ctx, `SELECT id, email, name FROM users WHERE email = $1`, email)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*authz.UserSummary, error) {
	var u authz.UserSummary
	err := r.db.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
