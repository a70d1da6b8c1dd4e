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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/inkwell-cms/inkwell/internal/observability/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	registry  *authz.Registry
	workflow  *authz.Workflow
	evaluator *authz.Evaluator
	gate      *authz.Gate
	store     Pinger
	validate  *validator.Validate
}

// NewHandler creates a new HTTP handler. store may be nil.
func NewHandler(
	registry *authz.Registry,
	workflow *authz.Workflow,
	evaluator *authz.Evaluator,
	gate *authz.Gate,
	store Pinger,
) *Handler {
	return &Handler{
		registry:  registry,
		workflow:  workflow,
		evaluator: evaluator,
		gate:      gate,
		store:     store,
		validate:  newValidator(),
	}
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RouterConfig holds router-level settings
type RouterConfig struct {
	RequestTimeout time.Duration
	Production     bool
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, auth *Authenticator, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(SecurityHeaders(cfg.Production))

	// Health check
	r.Get("/health", h.HealthCheck)

	guard := func(perms ...string) func(http.Handler) http.Handler {
		return RequirePermissions(h.gate, authz.Require(perms...))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/roles", func(r chi.Router) {
			r.With(guard(authz.PermRoleCreate, authz.PermAll)).Post("/", h.CreateRole)
			r.With(guard(authz.PermRoleRead, authz.PermRoleAll, authz.PermAll)).Get("/", h.ListRoles)
			r.With(guard(authz.PermRoleRead, authz.PermRoleAll, authz.PermAll)).Get("/{idOrSlug}", h.GetRole)
			r.With(guard(authz.PermRoleUpdate, authz.PermRoleAll, authz.PermAll)).Patch("/{idOrSlug}", h.UpdateRole)
			r.With(guard(authz.PermRoleDelete, authz.PermRoleAll, authz.PermAll)).Delete("/{idOrSlug}", h.DeleteRole)
		})

		r.Route("/user-roles", func(r chi.Router) {
			// Self-service
			r.Group(func(r chi.Router) {
				r.Use(RequireIdentity)
				r.Post("/request", h.RequestRole)
				r.Get("/my-requests", h.MyRequests)
				r.Get("/my-roles", h.MyRoles)
				r.Get("/my-permissions", h.MyPermissions)
			})

			// Administration
			r.Group(func(r chi.Router) {
				r.Use(guard(authz.PermRoleAssign, authz.PermAll))
				r.Get("/requests/pending", h.ListPendingRequests)
				r.Post("/requests/{id}/approve", h.ApproveRequest)
				r.Post("/requests/{id}/reject", h.RejectRequest)
				r.Delete("/users/{userId}/roles/{roleId}", h.RemoveUserRole)
			})

			r.With(guard(authz.PermUserRead, authz.PermAll)).Get("/users/{userId}/roles", h.ListUserRoles)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", logger.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "inkwell",
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "inkwell",
	})
}

// decode reads a JSON body into dst and validates its struct tags.
// It writes the 400 response itself and reports false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Error: validationMessage(verrs),
				Code:  string(authz.CodeInvalidInput),
			})
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// statusFor maps a domain error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, authz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, authz.ErrInvalidInput), errors.Is(err, authz.ErrAlreadyProcessed):
		return http.StatusBadRequest
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError writes err as a JSON error. Anything that is not an
// *authz.Error is logged and reported as a 500 without details.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var e *authz.Error
	if !errors.As(err, &e) {
		slog.ErrorContext(r.Context(), "request failed",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, statusFor(e), errorResponse{
		Error:  e.Message,
		Code:   string(e.Code),
		Status: string(e.Status),
		Count:  e.Count,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
