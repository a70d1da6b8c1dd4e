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

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-cms/inkwell/internal/authz"
)

// CreateRole defines a new role
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := h.registry.Create(r.Context(), authz.CreateRoleInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toRoleResponse(role))
}

// ListRoles returns every role with its active user count
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.registry.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toRoleUsageResponses(roles))
}

// GetRole looks a role up by ID or slug and reports how many users hold it
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	usage, err := h.registry.Usage(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toRoleUsageResponse(usage))
}

// UpdateRole applies a partial update
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := h.registry.Update(r.Context(), chi.URLParam(r, "idOrSlug"), authz.RolePatch{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toRoleResponse(role))
}

// DeleteRole removes a role nobody holds
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.registry.Remove(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "role deleted successfully",
		"id":      role.ID,
	})
}
