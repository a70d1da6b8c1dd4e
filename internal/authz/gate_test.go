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

package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates gate decisions for open, unauthenticated, forbidden and allowed calls.
// Scope: Unit Test
// Expected: Open requirements always allow; missing identity is unauthenticated; lacking grants is forbidden.
// Test Case ID: GATE-01
func TestGate_Check(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	manager := f.role(t, "role-manager", "role:*")
	reader := f.role(t, "role-reader", "role:read")
	f.grant(t, "manager", manager)
	f.grant(t, "reader", reader)

	updateRoles := authz.Require(authz.PermRoleUpdate, authz.PermRoleAll, authz.PermAll)

	tests := []struct {
		name    string
		user    string
		req     authz.Requirement
		allowed bool
		kind    error
	}{
		{"open requirement anonymous", "", authz.NoRequirement, true, nil},
		{"open requirement user", "reader", authz.NoRequirement, true, nil},
		{"anonymous", "", updateRoles, false, authz.ErrUnauthenticated},
		{"resource wildcard", "manager", updateRoles, true, nil},
		{"missing action", "reader", updateRoles, false, authz.ErrForbidden},
		{"no roles", "stranger", updateRoles, false, authz.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.gate.Check(ctx, tt.user, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.NoError(t, d.Err())
				return
			}
			assert.True(t, errors.Is(d.Err(), tt.kind))
		})
	}
}

// TestPurpose: Validates that requirements are order independent sets.
// Scope: Unit Test
// Expected: Permutations and duplicates produce equal requirements.
// Test Case ID: GATE-02
func TestRequire_OrderIndependent(t *testing.T) {
	a := authz.Require("role:read", "*", "role:*")
	b := authz.Require("role:*", "role:read", "*", "role:read")
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"*", "role:*", "role:read"}, a.Permissions())
	assert.False(t, a.IsOpen())
	assert.True(t, authz.Require().IsOpen())
	assert.True(t, authz.NoRequirement.IsOpen())
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) HasAnyPermission(ctx context.Context, userID string, perms []string) (bool, error) {
	args := m.Called(ctx, userID, perms)
	return args.Bool(0), args.Error(1)
}

// TestPurpose: Validates that storage failures surface as errors rather than denials.
// Scope: Unit Test
// Expected: Check returns the wrapped error and no decision.
// Test Case ID: GATE-03
func TestGate_StorageFailure(t *testing.T) {
	checker := new(mockChecker)
	boom := errors.New("db down")
	checker.On("HasAnyPermission", mock.Anything, "alice", []string{"role:read"}).Return(false, boom)

	gate := authz.NewGate(checker, nil)
	_, err := gate.Check(context.Background(), "alice", authz.Require("role:read"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	checker.AssertExpectations(t)
}
