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


package http

import (
	"time"

	"github.com/inkwell-cms/inkwell/internal/authz"
)

// CreateRoleRequest represents a new role definition
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Slug        string   `json:"slug" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"required"`
}

// UpdateRoleRequest represents a partial role update. Omitted fields are unchanged.
type UpdateRoleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=100"`
	Slug        *string  `json:"slug" validate:"omitempty,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Permissions []string `json:"permissions"`
}

// RequestRoleRequest asks for a role on behalf of the caller
type RequestRoleRequest struct {
	RoleID string `json:"role_id" validate:"required"`
}

// RejectRequest carries the reason shown to the requester
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RoleResponse is the wire form of a role
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	ActiveUsers *int      `json:"active_users,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserResponse is the display summary of a user
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// AssignmentResponse is the wire form of a user-role assignment
type AssignmentResponse struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	RoleID          string        `json:"role_id"`
	Status          string        `json:"status"`
	RequestedAt     time.Time     `json:"requested_at"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy      string        `json:"approved_by,omitempty"`
	RejectedAt      *time.Time    `json:"rejected_at,omitempty"`
	RejectedBy      string        `json:"rejected_by,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Role            *RoleResponse `json:"role,omitempty"`
	User            *UserResponse `json:"user,omitempty"`
	Approver        *UserResponse `json:"approver,omitempty"`
	Rejecter        *UserResponse `json:"rejecter,omitempty"`
}

func toRoleResponse(r *authz.Role) *RoleResponse {
	if r == nil {
		return nil
	}
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toRoleUsageResponse(u *authz.RoleUsage) *RoleResponse {
	resp := toRoleResponse(u.Role)
	count := u.ActiveUsers
	resp.ActiveUsers = &count
	return resp
}

func toRoleUsageResponses(list []*authz.RoleUsage) []*RoleResponse {
	out := make([]*RoleResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toRoleUsageResponse(u))
	}
	return out
}

func toUserResponse(u *authz.UserSummary) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toAssignmentResponse(a *authz.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		RoleID:          a.RoleID,
		Status:          string(a.Status),
		RequestedAt:     a.RequestedAt,
		ApprovedAt:      a.ApprovedAt,
		ApprovedBy:      a.ApprovedBy,
		RejectedAt:      a.RejectedAt,
		RejectedBy:      a.RejectedBy,
		RejectionReason: a.RejectionReason,
		Role:            toRoleResponse(a.Role),
		User:            toUserResponse(a.User),
		Approver:        toUserResponse(a.Approver),
		Rejecter:        toUserResponse(a.Rejecter),
	}
}

func toAssignmentResponses(list []*authz.Assignment) []*AssignmentResponse {
	out := make([]*AssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}
