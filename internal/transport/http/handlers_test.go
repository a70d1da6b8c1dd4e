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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/inkwell-cms/inkwell/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE AND USER-ROLE API TESTS
// Category: HTTP surface - routing, identity, authorization, error mapping
// Type: Unit Test (UT) against the in-memory store
// =============================================================================

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	store    *memory.Store
	registry *authz.Registry
	workflow *authz.Workflow
	router   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := memory.New()
	registry := authz.NewRegistry(st.Roles(), st.Assignments())
	workflow := authz.NewWorkflow(st.Roles(), st.Assignments(), nil)
	evaluator := authz.NewEvaluator(st.Assignments())
	gate := authz.NewGate(evaluator, nil)

	rl := NewRateLimiter(1000, 1000)
	t.Cleanup(rl.Stop)

	h := NewHandler(registry, workflow, evaluator, gate, nil)
	return &testServer{
		store:    st,
		registry: registry,
		workflow: workflow,
		router:   NewRouter(h, rl, NewAuthenticator([]byte(testSecret), ""), RouterConfig{}),
	}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// do sends a request as userID; an empty userID sends no Authorization header.
func (s *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// grant creates role (when missing) and makes userID an active holder.
func (s *testServer) grant(t *testing.T, userID, slug string, perms ...string) *authz.Role {
	t.Helper()
	ctx := context.Background()

	role, err := s.registry.FindBySlugOrID(ctx, slug)
	if err != nil {
		role, err = s.registry.Create(ctx, authz.CreateRoleInput{Name: "Role " + slug, Slug: slug, Permissions: perms})
		require.NoError(t, err)
	}
	req, err := s.workflow.RequestRole(ctx, userID, role.ID)
	require.NoError(t, err)
	_, err = s.workflow.Approve(ctx, req.ID, "system")
	require.NoError(t, err)
	return role
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// TestPurpose: Validates the health endpoint and the hardening headers on every response.
// Scope: Unit Test
// Expected: 200 with status healthy and X-Frame-Options/X-Content-Type-Options set.
// Test Case ID: HTTP-01
func TestHTTP_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody[map[string]string](t, w)["status"])
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

// TestPurpose: Validates identity resolution at the API boundary.
// Scope: Unit Test
// Security: Anonymous and forged callers never reach a handler
// Expected: 401 for no token, a malformed header and a token signed with another key; 403 for a
// verified caller without permissions.
// Test Case ID: HTTP-02
func TestHTTP_IdentityAndGate(t *testing.T) {
	s := newTestServer(t)

	t.Run("anonymous", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/roles", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthenticated", decodeBody[map[string]any](t, w)["code"])
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no permission", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/roles", "user-1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "forbidden", decodeBody[map[string]any](t, w)["code"])
	})

	t.Run("self-service needs identity only", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/user-roles/my-roles", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeBody[[]AssignmentResponse](t, w))
	})
}

// TestPurpose: Validates role management over HTTP and the mapping of registry errors.
// Scope: Unit Test
// Expected: role:* covers every route; 201 on create, 409 duplicate_slug, 400 invalid_permission, 200 on patch, 404 for an unknown role.
// Test Case ID: HTTP-03
func TestHTTP_RoleLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "admin-1", "role-manager", authz.PermRoleAll)

	w := s.do(t, http.MethodPost, "/api/v1/roles", "admin-1", CreateRoleRequest{
		Name:        "Author",
		Slug:        "author",
		Permissions: []string{"content:create", "content:read"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[RoleResponse](t, w)
	assert.Equal(t, "author", created.Slug)
	assert.Equal(t, []string{"content:create", "content:read"}, created.Permissions)

	w = s.do(t, http.MethodPost, "/api/v1/roles", "admin-1", CreateRoleRequest{
		Name:        "Author 2",
		Slug:        "author",
		Permissions: []string{},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_slug", decodeBody[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/v1/roles", "admin-1", CreateRoleRequest{
		Name:        "Broken",
		Slug:        "broken",
		Permissions: []string{"Content:Read"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_permission", decodeBody[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/v1/roles", "admin-1", map[string]any{"slug": "nameless"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", decodeBody[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodPatch, "/api/v1/roles/author", "admin-1", map[string]any{
		"description": "Writes articles",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decodeBody[RoleResponse](t, w)
	assert.Equal(t, "Writes articles", patched.Description)
	assert.Equal(t, created.Permissions, patched.Permissions)

	w = s.do(t, http.MethodGet, "/api/v1/roles/"+created.ID, "admin-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/roles/missing", "admin-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "role_not_found", decodeBody[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/v1/roles", "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]RoleResponse](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "author", list[0].Slug)
	require.NotNil(t, list[0].ActiveUsers)
	assert.Equal(t, 0, *list[0].ActiveUsers)
}

// TestPurpose: Validates the request/approve flow end to end, including the double-approve guard.
// Scope: Unit Test
// Expected: The requester gains the role's permissions after approval; a second approval is a
// 400 already_processed carrying the current status.
// Test Case ID: HTTP-04
func TestHTTP_RequestApproveFlow(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "admin-1", "root", authz.PermAll)
	editor, err := s.registry.Create(context.Background(), authz.CreateRoleInput{
		Name:        "Editor",
		Slug:        "editor",
		Permissions: []string{"content:create", "content:read"},
	})
	require.NoError(t, err)
	s.store.PutUser(authz.UserSummary{ID: "user-1", Email: "writer@example.com", Name: "Writer"})

	w := s.do(t, http.MethodPost, "/api/v1/user-roles/request", "user-1", RequestRoleRequest{RoleID: editor.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	request := decodeBody[AssignmentResponse](t, w)
	assert.Equal(t, "PENDING", request.Status)

	w = s.do(t, http.MethodPost, "/api/v1/user-roles/request", "user-1", RequestRoleRequest{RoleID: editor.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "request_already_pending", decodeBody[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/v1/user-roles/requests/pending", "user-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/user-roles/requests/pending", "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decodeBody[[]AssignmentResponse](t, w)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].User)
	assert.Equal(t, "writer@example.com", pending[0].User.Email)

	w = s.do(t, http.MethodPost, "/api/v1/user-roles/requests/"+request.ID+"/approve", "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decodeBody[AssignmentResponse](t, w)
	assert.Equal(t, "ACTIVE", approved.Status)
	assert.Equal(t, "admin-1", approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	w = s.do(t, http.MethodPost, "/api/v1/user-roles/requests/"+request.ID+"/approve", "admin-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "already_processed", body["code"])
	assert.Equal(t, "ACTIVE", body["status"])

	w = s.do(t, http.MethodGet, "/api/v1/user-roles/my-permissions", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"content:create", "content:read"},
		decodeBody[map[string][]string](t, w)["permissions"])

	w = s.do(t, http.MethodGet, "/api/v1/user-roles/my-roles", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	roles := decodeBody[[]AssignmentResponse](t, w)
	require.Len(t, roles, 1)
	assert.Equal(t, "editor", roles[0].Role.Slug)

	w = s.do(t, http.MethodPost, "/api/v1/user-roles/request", "user-1", RequestRoleRequest{RoleID: editor.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_active", decodeBody[map[string]any](t, w)["code"])
}

// TestPurpose: Validates rejection input rules and the recorded reason.
// Scope: Unit Test
// Expected: A blank reason is a 400; a real reason produces REJECTED with the reason in the history.
// Test Case ID: HTTP-05
func TestHTTP_Reject(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "admin-1", "root", authz.PermAll)
	viewer, err := s.registry.Create(context.Background(), authz.CreateRoleInput{
		Name: "Viewer", Slug: "viewer", Permissions: []string{"content:read"},
	})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/user-roles/request", "user-2", RequestRoleRequest{RoleID: viewer.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	request := decodeBody[AssignmentResponse](t, w)

	path := "/api/v1/user-roles/requests/" + request.ID + "/reject"
	w = s.do(t, http.MethodPost, path, "admin-1", RejectRequest{Reason: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path, "admin-1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path, "admin-1", RejectRequest{Reason: "not on the content team"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "REJECTED", decodeBody[AssignmentResponse](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/v1/user-roles/my-requests", "user-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeBody[[]AssignmentResponse](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "not on the content team", history[0].RejectionReason)
	assert.Equal(t, "admin-1", history[0].RejectedBy)

	w = s.do(t, http.MethodPost, "/api/v1/user-roles/requests/unknown/approve", "admin-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "request_not_found", decodeBody[map[string]any](t, w)["code"])
}

// TestPurpose: Validates that a held role cannot be deleted until its grants are removed.
// Scope: Unit Test
// Expected: GET reports active_users 1; 409 role_in_use with count 1, 200 after the grant is removed, 404 when removing twice.
// Test Case ID: HTTP-06
func TestHTTP_DeleteRoleInUse(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "admin-1", "root", authz.PermAll)
	editor := s.grant(t, "user-1", "editor", "content:*")

	w := s.do(t, http.MethodDelete, "/api/v1/roles/editor", "admin-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "role_in_use", body["code"])
	assert.EqualValues(t, 1, body["count"])

	w = s.do(t, http.MethodGet, "/api/v1/roles/"+editor.ID, "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[RoleResponse](t, w)
	require.NotNil(t, got.ActiveUsers)
	assert.Equal(t, 1, *got.ActiveUsers)

	removePath := "/api/v1/user-roles/users/user-1/roles/" + editor.ID
	w = s.do(t, http.MethodDelete, removePath, "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, removePath, "admin-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "assignment_not_found", decodeBody[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodDelete, "/api/v1/roles/editor", "admin-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/roles/editor", "admin-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates the administrative listing of another user's active roles.
// Scope: Unit Test
// Expected: 200 with the target's ACTIVE grants for user:read holders, 403 for callers without it.
// Test Case ID: HTTP-07
func TestHTTP_ListUserRoles(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "auditor-1", "user-reader", authz.PermUserRead)
	s.grant(t, "approver-1", "approver", authz.PermRoleAssign)
	s.grant(t, "user-1", "editor", "content:*")

	viewer, err := s.registry.Create(context.Background(), authz.CreateRoleInput{
		Name: "Viewer", Slug: "viewer", Permissions: []string{"content:read"},
	})
	require.NoError(t, err)
	_, err = s.workflow.RequestRole(context.Background(), "user-1", viewer.ID)
	require.NoError(t, err)

	path := "/api/v1/user-roles/users/user-1/roles"

	w := s.do(t, http.MethodGet, path, "auditor-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	roles := decodeBody[[]AssignmentResponse](t, w)
	require.Len(t, roles, 1)
	require.NotNil(t, roles[0].Role)
	assert.Equal(t, "editor", roles[0].Role.Slug)
	assert.Equal(t, "ACTIVE", roles[0].Status)

	w = s.do(t, http.MethodGet, path, "approver-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/user-roles/users/nobody/roles", "auditor-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]AssignmentResponse](t, w))
}

// TestPurpose: Validates that a role read back over the API can be written back unchanged.
// Scope: Unit Test
// Expected: PATCH with the permissions returned by GET succeeds and leaves them equal.
// Test Case ID: HTTP-08
func TestHTTP_UpdateRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "admin-1", "root", authz.PermAll)

	w := s.do(t, http.MethodPost, "/api/v1/roles", "admin-1", CreateRoleRequest{
		Name: "Mixed", Slug: "mixed", Permissions: []string{"a:b", "a:*", "*"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[RoleResponse](t, w)

	w = s.do(t, http.MethodGet, "/api/v1/roles/"+created.ID, "admin-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[RoleResponse](t, w)

	w = s.do(t, http.MethodPatch, "/api/v1/roles/"+created.ID, "admin-1", map[string]any{
		"permissions": got.Permissions,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, got.Permissions, decodeBody[RoleResponse](t, w).Permissions)
}
