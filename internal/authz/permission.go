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
	"regexp"
	"strings"
)

// permissionPattern is the grammar for stored permission strings:
// "*", "<resource>:*" or "<resource>:<action>".
var permissionPattern = regexp.MustCompile(`^(\*|[a-z-]+:\*|[a-z-]+:[a-z-]+)$`)

// Permission is a parsed permission string. The set of implementations is
// closed: Wildcard, ResourceWildcard and Exact.
type Permission interface {
	// Satisfies reports whether holding this permission grants required.
	Satisfies(required string) bool
	String() string

	permission()
}

// Wildcard grants every permission.
type Wildcard struct{}

// ResourceWildcard grants every action on one resource.
type ResourceWildcard struct {
	Resource string
}

// Exact grants a single action on a single resource.
type Exact struct {
	Resource string
	Action   string
}

func (Wildcard) permission()         {}
func (ResourceWildcard) permission() {}
func (Exact) permission()            {}

func (Wildcard) String() string { return "*" }

func (p ResourceWildcard) String() string { return p.Resource + ":*" }

func (p Exact) String() string { return p.Resource + ":" + p.Action }

func (Wildcard) Satisfies(string) bool { return true }

func (p ResourceWildcard) Satisfies(required string) bool {
	if required == p.String() {
		return true
	}
	resource, _, ok := strings.Cut(required, ":")
	return ok && resource == p.Resource
}

func (p Exact) Satisfies(required string) bool {
	return required == p.String()
}

// Parse converts s into its Permission variant.
func Parse(s string) (Permission, error) {
	if !permissionPattern.MatchString(s) {
		return nil, errInvalidPermission(s)
	}
	if s == "*" {
		return Wildcard{}, nil
	}
	resource, action, _ := strings.Cut(s, ":")
	if action == "*" {
		return ResourceWildcard{Resource: resource}, nil
	}
	return Exact{Resource: resource, Action: action}, nil
}

// Validate checks s against the permission grammar.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// ValidateAll validates every entry and fails on the first invalid one.
func ValidateAll(permissions []string) error {
	for _, p := range permissions {
		if err := Validate(p); err != nil {
			return err
		}
	}
	return nil
}

// Satisfies reports whether the granted string grants required.
// A granted string that does not parse grants nothing.
func Satisfies(granted, required string) bool {
	p, err := Parse(granted)
	if err != nil {
		return false
	}
	return p.Satisfies(required)
}
