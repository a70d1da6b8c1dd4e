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

// Package bootstrap prepares a fresh installation: it seeds the default
// roles and provisions the first administrator. It is invoked from the
// server's startup hook and the bootstrap subcommand only.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/inkwell-cms/inkwell/internal/id"
	"github.com/inkwell-cms/inkwell/internal/observability/logger"
)

// Config selects what bootstrap does
type Config struct {
	SeedRoles   bool
	AdminEmail  string
	AdminUserID string // used instead of the email lookup when set
	AdminRole   string // slug; defaults to super-admin
}

// Service runs the bootstrap steps
type Service struct {
	registry    *authz.Registry
	assignments authz.AssignmentRepository
	users       authz.UserDirectory
	now         func() time.Time
}

// NewService creates a new bootstrap service
func NewService(registry *authz.Registry, assignments authz.AssignmentRepository, users authz.UserDirectory) *Service {
	return &Service{
		registry:    registry,
		assignments: assignments,
		users:       users,
		now:         time.Now,
	}
}

// Run seeds roles when enabled, then provisions the administrator when configured
func (s *Service) Run(ctx context.Context, cfg Config) error {
	if cfg.SeedRoles {
		if _, err := s.SeedRoles(ctx); err != nil {
			return err
		}
	}
	return s.ProvisionAdmin(ctx, cfg)
}

// SeedRoles creates every default role whose slug is missing and returns
// how many were created. Existing roles are left untouched.
func (s *Service) SeedRoles(ctx context.Context) (int, error) {
	created := 0
	for _, in := range authz.DefaultRoles() {
		_, err := s.registry.FindBySlugOrID(ctx, in.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, authz.ErrNotFound) {
			return created, fmt.Errorf("failed to look up default role %s: %w", in.Slug, err)
		}

		if _, err := s.registry.Create(ctx, in); err != nil {
			if errors.Is(err, authz.ErrConflict) {
				slog.WarnContext(ctx, "skipping default role", logger.RoleSlug(in.Slug), logger.Error(err))
				continue
			}
			return created, fmt.Errorf("failed to seed role %s: %w", in.Slug, err)
		}
		created++
	}
	if created > 0 {
		slog.InfoContext(ctx, "seeded default roles", slog.Int("count", created))
	}
	return created, nil
}

// ProvisionAdmin grants the admin role ACTIVE to the configured user
// directly, bypassing the request workflow. It does nothing once anyone
// holds the role.
func (s *Service) ProvisionAdmin(ctx context.Context, cfg Config) error {
	if cfg.AdminEmail == "" && cfg.AdminUserID == "" {
		return nil
	}
	slug := cfg.AdminRole
	if slug == "" {
		slug = authz.RoleSuperAdmin
	}

	role, err := s.registry.FindBySlugOrID(ctx, slug)
	if err != nil {
		return fmt.Errorf("bootstrap admin role %s unavailable: %w", slug, err)
	}

	holders, err := s.assignments.CountByRole(ctx, role.ID, authz.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to check for existing administrators: %w", err)
	}
	if holders > 0 {
		slog.DebugContext(ctx, "administrator already provisioned", logger.RoleSlug(slug))
		return nil
	}

	user, err := s.resolveUser(ctx, cfg)
	if err != nil {
		return err
	}

	now := s.now()
	a := &authz.Assignment{
		ID:          id.NewUUIDv7(),
		UserID:      user.ID,
		RoleID:      role.ID,
		Status:      authz.StatusActive,
		RequestedAt: now,
		ApprovedAt:  &now,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		if errors.Is(err, authz.ErrActiveExists) {
			return nil
		}
		return fmt.Errorf("failed to grant %s during bootstrap: %w", slug, err)
	}

	slog.InfoContext(ctx, "provisioned initial administrator",
		logger.UserID(user.ID), logger.RoleSlug(slug), logger.AssignmentID(a.ID))
	return nil
}

func (s *Service) resolveUser(ctx context.Context, cfg Config) (*authz.UserSummary, error) {
	var (
		user *authz.UserSummary
		err  error
	)
	if cfg.AdminUserID != "" {
		user, err = s.users.GetByID(ctx, cfg.AdminUserID)
	} else {
		user, err = s.users.GetByEmail(ctx, cfg.AdminEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap user not found (id: %q, email: %q): %w", cfg.AdminUserID, cfg.AdminEmail, err)
	}
	return user, nil
}
