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
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/inkwell-cms/inkwell/internal/observability/logger"
	"github.com/inkwell-cms/inkwell/internal/observability/metrics"
)

// PermissionChecker answers whether a user holds any of a set of permissions
type PermissionChecker interface {
	HasAnyPermission(ctx context.Context, userID string, permissions []string) (bool, error)
}

// Requirement is the set of permissions an operation accepts. Holding any
// one of them is enough; order is irrelevant.
type Requirement struct {
	permissions []string
}

// NoRequirement marks an operation that any caller may invoke.
var NoRequirement = Requirement{}

// Require declares an operation that needs at least one of permissions.
func Require(permissions ...string) Requirement {
	ps := slices.Clone(permissions)
	slices.Sort(ps)
	return Requirement{permissions: slices.Compact(ps)}
}

// Permissions returns the accepted permissions in sorted order.
func (r Requirement) Permissions() []string {
	return slices.Clone(r.permissions)
}

// IsOpen reports whether the requirement admits every caller.
func (r Requirement) IsOpen() bool {
	return len(r.permissions) == 0
}

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	Reason  *Error // set when Allowed is false
}

// Err returns the denial reason, or nil when the decision allows.
func (d Decision) Err() error {
	if d.Allowed || d.Reason == nil {
		return nil
	}
	return d.Reason
}

// Gate turns a declared requirement and a caller identity into a decision.
type Gate struct {
	checker PermissionChecker
	inst    *instruments
}

// NewGate creates a gate over checker. meter may be nil.
func NewGate(checker PermissionChecker, meter *metrics.Meter) *Gate {
	return &Gate{
		checker: checker,
		inst:    newInstruments(meter),
	}
}

// Check decides whether userID may perform an operation guarded by req.
// An empty userID means the caller is unauthenticated. Storage failures are
// returned as errors, never as a denial.
func (g *Gate) Check(ctx context.Context, userID string, req Requirement) (Decision, error) {
	ctx, span := tracer.Start(ctx, "authz.Gate.Check")
	defer span.End()

	var d Decision
	switch {
	case req.IsOpen():
		d = Decision{Allowed: true}
	case userID == "":
		d = Decision{Reason: errUnauthenticated()}
	default:
		ok, err := g.checker.HasAnyPermission(ctx, userID, req.permissions)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to evaluate permissions: %w", err)
		}
		if ok {
			d = Decision{Allowed: true}
		} else {
			d = Decision{Reason: errForbidden()}
		}
	}

	g.inst.decision(ctx, d)
	if !d.Allowed {
		slog.DebugContext(ctx, "access denied",
			logger.UserID(userID), logger.ErrorType(string(d.Reason.Code)))
	}
	return d, nil
}
