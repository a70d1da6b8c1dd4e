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

package memory

import (
	"context"

	"github.com/inkwell-cms/inkwell/internal/authz"
)

// UserDirectory implements authz.UserDirectory over users recorded with PutUser
type UserDirectory struct {
	s *Store
}

// GetByID retrieves a user summary by ID
func (d *UserDirectory) GetByID(_ context.Context, id string) (*authz.UserSummary, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	u, ok := d.s.users[id]
	if !ok {
		return nil, authz.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail retrieves a user summary by email
func (d *UserDirectory) GetByEmail(_ context.Context, email string) (*authz.UserSummary, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	for _, u := range d.s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, authz.ErrUserNotFound
}
