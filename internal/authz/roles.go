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

// -----------------------------------------------------------------------------
// Role Slug Constants
// Canonical slugs of the roles seeded on first start.
// -----------------------------------------------------------------------------

const (
	// RoleSuperAdmin holds every permission.
	// Permissions: * (wildcard)
	RoleSuperAdmin = "super-admin"

	// RoleAdmin manages content and can read users.
	RoleAdmin = "admin"

	// RoleEditor creates and edits content.
	RoleEditor = "editor"

	// RoleViewer reads content.
	RoleViewer = "viewer"
)

// -----------------------------------------------------------------------------
// Permission Constants
// Permissions checked by the role management surface itself.
// -----------------------------------------------------------------------------

const (
	PermAll        = "*"
	PermRoleAll    = "role:*"
	PermRoleCreate = "role:create"
	PermRoleRead   = "role:read"
	PermRoleUpdate = "role:update"
	PermRoleDelete = "role:delete"
	PermRoleAssign = "role:assign"

	PermContentAll    = "content:*"
	PermContentCreate = "content:create"
	PermContentRead   = "content:read"
	PermContentUpdate = "content:update"
	PermUserRead      = "user:read"
)

// -----------------------------------------------------------------------------
// Default Roles
// Seeded by the bootstrap path when their slug is missing.
// -----------------------------------------------------------------------------

// DefaultRoles returns the roles every installation starts with.
func DefaultRoles() []CreateRoleInput {
	return []CreateRoleInput{
		{
			Name:        "Super Admin",
			Slug:        RoleSuperAdmin,
			Description: "Full access to every resource",
			Permissions: []string{PermAll},
		},
		{
			Name:        "Admin",
			Slug:        RoleAdmin,
			Description: "Manages content and reads users",
			Permissions: []string{PermContentAll, PermUserRead},
		},
		{
			Name:        "Editor",
			Slug:        RoleEditor,
			Description: "Creates and edits content",
			Permissions: []string{PermContentCreate, PermContentUpdate, PermContentRead},
		},
		{
			Name:        "Viewer",
			Slug:        RoleViewer,
			Description: "Reads content",
			Permissions: []string{PermContentRead},
		},
	}
}
