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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwell-cms/inkwell/internal/authz"
	"github.com/inkwell-cms/inkwell/internal/bootstrap"
	"github.com/inkwell-cms/inkwell/internal/config"
	"github.com/inkwell-cms/inkwell/internal/id"
	"github.com/inkwell-cms/inkwell/internal/observability/logger"
	"github.com/inkwell-cms/inkwell/internal/observability/metrics"
	"github.com/inkwell-cms/inkwell/internal/observability/tracing"
	"github.com/inkwell-cms/inkwell/internal/store/memory"
	"github.com/inkwell-cms/inkwell/internal/store/postgres"
	transportHTTP "github.com/inkwell-cms/inkwell/internal/transport/http"
)

const usage = `usage: inkwell [serve|migrate|bootstrap]

  serve      run the HTTP API (default)
  migrate    apply the database schema
  bootstrap  seed default roles and provision the first administrator
`

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Observability.ServiceName,
	})

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		err = runServer(ctx, cfg)
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "bootstrap":
		err = runBootstrap(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error(command+" failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// backend bundles the repositories of the configured store driver
type backend struct {
	roles       authz.RoleRepository
	assignments authz.AssignmentRepository
	users       authz.UserDirectory
	db          *postgres.DB // nil for the memory driver
}

func (b *backend) Close() {
	if b.db != nil {
		b.db.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StoreDriver == config.DriverMemory {
		st := memory.New()
		seedMemoryAdmin(st, cfg.Bootstrap)
		slog.Warn("using the in-memory store; data is lost on restart")
		return &backend{
			roles:       st.Roles(),
			assignments: st.Assignments(),
			users:       st.Users(),
		}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database")

	return &backend{
		roles:       postgres.NewRoleRepository(db),
		assignments: postgres.NewAssignmentRepository(db),
		users:       postgres.NewUserRepository(db),
		db:          db,
	}, nil
}

// seedMemoryAdmin registers the configured administrator with the in-memory
// user directory so bootstrap can resolve it.
func seedMemoryAdmin(st *memory.Store, cfg config.BootstrapConfig) {
	if cfg.AdminUserID == "" && cfg.AdminEmail == "" {
		return
	}
	userID := cfg.AdminUserID
	if userID == "" {
		userID = id.NewUUIDv7()
	}
	st.PutUser(authz.UserSummary{ID: userID, Email: cfg.AdminEmail, Name: "Administrator"})
}

func openDB(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		URL:          cfg.Database.URL,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Name,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
}

func bootstrapConfig(cfg *config.Config) bootstrap.Config {
	return bootstrap.Config{
		SeedRoles:   cfg.Bootstrap.SeedRoles,
		AdminEmail:  cfg.Bootstrap.AdminEmail,
		AdminUserID: cfg.Bootstrap.AdminUserID,
		AdminRole:   cfg.Bootstrap.AdminRole,
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting inkwell rbac service", slog.String("env", cfg.Env), slog.String("store", cfg.StoreDriver))

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.Enabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Endpoint:       cfg.Observability.Endpoint,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		tracer = &tracing.Tracer{}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", logger.Error(err))
		}
	}()

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.Enabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		meter = metrics.Disabled()
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize services
	registry := authz.NewRegistry(store.roles, store.assignments)
	workflow := authz.NewWorkflow(store.roles, store.assignments, meter)
	evaluator := authz.NewEvaluator(store.assignments)
	gate := authz.NewGate(evaluator, meter)

	// Run Bootstrap (ENV driven)
	if err := bootstrap.NewService(registry, store.assignments, store.users).Run(ctx, bootstrapConfig(cfg)); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
	}

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	var pinger transportHTTP.Pinger
	if store.db != nil {
		pinger = store.db
	}

	handler := transportHTTP.NewHandler(registry, workflow, evaluator, gate, pinger)
	router := transportHTTP.NewRouter(
		handler,
		rateLimiter,
		transportHTTP.NewAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer),
		transportHTTP.RouterConfig{
			RequestTimeout: cfg.Server.RequestTimeout,
			Production:     cfg.IsProduction(),
		},
	)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"), slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrate requires the %s store driver", config.DriverPostgres)
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("applying initial schema")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	slog.Info("migration successful")
	return nil
}

func runBootstrap(ctx context.Context, cfg *config.Config) error {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := authz.NewRegistry(store.roles, store.assignments)
	return bootstrap.NewService(registry, store.assignments, store.users).Run(ctx, bootstrapConfig(cfg))
}
