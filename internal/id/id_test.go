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

package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that generated ids are unique, canonical and version 7.
// Scope: Unit Test
// Expected: Two calls never collide and both are recognised by IsID.
// Test Case ID: ID-01
func TestNewUUIDv7(t *testing.T) {
	a := NewUUIDv7()
	b := NewUUIDv7()

	assert.NotEqual(t, a, b)
	assert.True(t, IsID(a))
	assert.Equal(t, byte('7'), a[14])
}

// TestPurpose: Validates id-shape detection used for id-or-slug lookups.
// Scope: Unit Test
// Expected: Only canonical 36-character UUIDs are ids.
// Test Case ID: ID-02
func TestIsID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0190f5d2-6d3a-7c4e-9a1b-2f3c4d5e6f70", true},
		{"editor", false},
		{"super-admin", false},
		{"0190f5d26d3a7c4e9a1b2f3c4d5e6f70", false},
		{"urn:uuid:0190f5d2-6d3a-7c4e-9a1b-2f3c4d5e6f70", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsID(tt.in), tt.in)
	}
}
