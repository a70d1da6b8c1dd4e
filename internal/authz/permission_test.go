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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates the permission grammar accepted by role definitions.
// Scope: Unit Test
// Expected: Only "*", "resource:*" and "resource:action" over [a-z-]+ are accepted.
// Test Case ID: PERM-01
func TestValidate_Grammar(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"*", true},
		{"content:*", true},
		{"content:read", true},
		{"user-profile:change-password", true},
		{"-:-", true},
		{"content", false},
		{"content:", false},
		{":read", false},
		{"Content:read", false},
		{"content:read:extra", false},
		{"content:re ad", false},
		{"content:read1", false},
		{"*:read", false},
		{"**", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, CodeInvalidPermission, CodeOf(err))
		})
	}
}

// TestPurpose: Validates that parsing yields the matching closed variant.
// Scope: Unit Test
// Expected: Each valid form parses to its variant and prints back unchanged.
// Test Case ID: PERM-02
func TestParse_Variants(t *testing.T) {
	p, err := Parse("*")
	require.NoError(t, err)
	assert.Equal(t, Wildcard{}, p)

	p, err = Parse("content:*")
	require.NoError(t, err)
	assert.Equal(t, ResourceWildcard{Resource: "content"}, p)

	p, err = Parse("content:read")
	require.NoError(t, err)
	assert.Equal(t, Exact{Resource: "content", Action: "read"}, p)

	for _, s := range []string{"*", "content:*", "content:read"} {
		p, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, p.String())
	}
}

// TestPurpose: Validates wildcard and exact matching between granted and required strings.
// Scope: Unit Test
// Expected: "*" grants everything, "r:*" grants any r action, exact strings grant only themselves.
// Test Case ID: PERM-03
func TestSatisfies(t *testing.T) {
	tests := []struct {
		granted  string
		required string
		want     bool
	}{
		{"*", "anything:at-all", true},
		{"*", "*", true},
		{"content:*", "content:delete", true},
		{"content:*", "content:*", true},
		{"content:*", "media:read", false},
		{"content:*", "*", false},
		{"content:read", "content:read", true},
		{"content:read", "content:update", false},
		{"content:read", "content:*", false},
		{"content:read", "Content:read", false},
		{"content:*", "content", false},
		{"not valid", "not valid", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Satisfies(tt.granted, tt.required), "%s grants %s", tt.granted, tt.required)
	}
}

// TestPurpose: Validates that batch validation stops at the first invalid entry.
// Scope: Unit Test
// Expected: The error names the first offending permission.
// Test Case ID: PERM-04
func TestValidateAll_FirstInvalidFails(t *testing.T) {
	assert.NoError(t, ValidateAll(nil))
	assert.NoError(t, ValidateAll([]string{"content:read", "content:read", "*"}))

	err := ValidateAll([]string{"content:read", "BAD", "also bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"BAD"`)
}
