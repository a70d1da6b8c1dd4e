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
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-cms/inkwell/internal/authz"
)

// RequestRole files a PENDING request for the caller
func (h *Handler) RequestRole(w http.ResponseWriter, r *http.Request) {
	var req RequestRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.workflow.RequestRole(r.Context(), GetUserID(r.Context()), req.RoleID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

// MyRequests returns the caller's request history
func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.workflow.ListForUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssignmentResponses(list))
}

// MyRoles returns the caller's active grants
func (h *Handler) MyRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.workflow.ListActiveForUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssignmentResponses(list))
}

// MyPermissions returns the caller's effective permission strings
func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.evaluator.EffectivePermissions(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if perms == nil {
		perms = []string{}
	}

	respondJSON(w, http.StatusOK, map[string][]string{
		"permissions": perms,
	})
}

// ListPendingRequests returns every request awaiting a decision
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.workflow.ListPending(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssignmentResponses(list))
}

// ApproveRequest activates a pending request
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	a, err := h.workflow.Approve(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssignmentResponse(a))
}

// RejectRequest closes a pending request with a reason
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: "reason is required",
			Code:  string(authz.CodeInvalidInput),
		})
		return
	}

	a, err := h.workflow.Reject(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()), req.Reason)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssignmentResponse(a))
}

// ListUserRoles returns another user's active grants
func (h *Handler) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.workflow.ListActiveForUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssignmentResponses(list))
}

// RemoveUserRole revokes an active grant
func (h *Handler) RemoveUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	roleID := chi.URLParam(r, "roleId")

	if err := h.workflow.RemoveAssignment(r.Context(), userID, roleID, GetUserID(r.Context())); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "role removed successfully",
	})
}
