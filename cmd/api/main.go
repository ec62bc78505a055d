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

	_ "complyflow/docs" // Swagger documentation
	"complyflow/internal/auth"
	"complyflow/internal/config"
	"complyflow/internal/database"
	"complyflow/internal/email"
	"complyflow/internal/handlers"
	"complyflow/internal/logger"
	"complyflow/internal/middleware"
	"complyflow/internal/repository"
	"complyflow/internal/scheduler"
	"complyflow/internal/service"
	"complyflow/internal/storage"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title ComplyFlow API
// @version 1.0
// @description Backend API for the ComplyFlow compliance checklist and audit platform

// @contact.name API Support
// @contact.email support@complyflow.example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize document storage
	documentStore, err := storage.NewLocalStorage(&cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize document storage", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	roleRepo := repository.NewRoleRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	auditLogRepo := repository.NewAuditLogRepository(db.DB)
	templateRepo := repository.NewTemplateRepository(db.DB)
	submissionRepo := repository.NewSubmissionRepository(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	auditSvc := service.NewAuditService(auditLogRepo)
	authSvc := service.NewAuthService(userRepo, roleRepo, sessionRepo, authService, auditSvc, cfg.JWT.RefreshExpiration)
	templateSvc := service.NewTemplateService(templateRepo)
	submissionSvc := service.NewSubmissionService(submissionRepo, templateRepo, documentStore, auditSvc)
	verificationSvc := service.NewVerificationService(submissionRepo, templateRepo, userRepo, auditSvc, emailService)

	// Initialize scheduler
	schedulerService := scheduler.NewScheduler(submissionRepo, userRepo, roleRepo, sessionRepo, emailService, &cfg.Scheduler)
	schedulerService.Start()
	defer schedulerService.Stop()

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	rbacMw := middleware.NewRBACMiddleware(roleRepo)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	auditMw := middleware.NewAuditMiddleware(auditLogRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	userHandler := handlers.NewUserHandler(userRepo, roleRepo)
	auditLogHandler := handlers.NewAuditLogHandler(auditSvc)
	templateHandler := handlers.NewTemplateHandler(templateSvc)
	submissionHandler := handlers.NewSubmissionHandler(submissionSvc, roleRepo, cfg.Storage.MaxUploadSize)
	verificationHandler := handlers.NewVerificationHandler(verificationSvc, roleRepo)

	// Setup router
	mux := http.NewServeMux()

	// Public auth routes
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	// Authenticated auth routes
	mux.Handle("GET /api/v1/auth/me", authMw.Authenticate(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/v1/auth/password/change", authMw.Authenticate(http.HandlerFunc(authHandler.ChangePassword)))

	// Template routes. Reads are open to all authenticated users, writes
	// require the manager or admin role.
	mux.Handle("GET /api/v1/templates",
		authMw.Authenticate(http.HandlerFunc(templateHandler.List)))
	mux.Handle("GET /api/v1/templates/{id}",
		authMw.Authenticate(http.HandlerFunc(templateHandler.Get)))
	mux.Handle("POST /api/v1/templates",
		authMw.Authenticate(
			rbacMw.RequireAnyRole(handlers.RoleManager, handlers.RoleAdmin)(
				auditMw.Log("template_create", "template")(
					http.HandlerFunc(templateHandler.Create),
				),
			),
		),
	)
	mux.Handle("PUT /api/v1/templates/{id}",
		authMw.Authenticate(
			rbacMw.RequireAnyRole(handlers.RoleManager, handlers.RoleAdmin)(
				auditMw.Log("template_update", "template")(
					http.HandlerFunc(templateHandler.Update),
				),
			),
		),
	)
	mux.Handle("DELETE /api/v1/templates/{id}",
		authMw.Authenticate(
			rbacMw.RequireAnyRole(handlers.RoleManager, handlers.RoleAdmin)(
				auditMw.Log("template_delete", "template")(
					http.HandlerFunc(templateHandler.Delete),
				),
			),
		),
	)

	// Submission routes
	mux.Handle("POST /api/v1/templates/{templateId}/submissions",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.Start)))
	mux.Handle("GET /api/v1/submissions/my",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.GetMy)))
	mux.Handle("GET /api/v1/submissions",
		authMw.Authenticate(
			rbacMw.RequireAnyRole(handlers.RoleManager, handlers.RoleAdmin)(
				http.HandlerFunc(submissionHandler.List),
			),
		),
	)
	mux.Handle("GET /api/v1/submissions/{id}",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.Get)))
	mux.Handle("PUT /api/v1/submissions/{id}",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.SaveDraft)))
	mux.Handle("GET /api/v1/submissions/{id}/progress",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.Progress)))
	mux.Handle("POST /api/v1/submissions/{id}/finalize",
		authMw.Authenticate(
			auditMw.Log("submission_finalize", "submission")(
				http.HandlerFunc(submissionHandler.Finalize),
			),
		),
	)
	mux.Handle("GET /api/v1/submissions/{id}/scores",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.ScoreBreakdown)))
	mux.Handle("POST /api/v1/submissions/{id}/items/{itemId}/document",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.AttachDocument)))
	mux.Handle("DELETE /api/v1/submissions/{id}",
		authMw.Authenticate(http.HandlerFunc(submissionHandler.Delete)))

	// Verification routes (manager/admin checked in the handler so the
	// service can audit denied attempts)
	mux.Handle("POST /api/v1/submissions/{id}/verification/approve",
		authMw.Authenticate(
			auditMw.Log("verification_approve", "submission")(
				http.HandlerFunc(verificationHandler.Approve),
			),
		),
	)
	mux.Handle("POST /api/v1/submissions/{id}/verification/reject",
		authMw.Authenticate(
			auditMw.Log("verification_reject", "submission")(
				http.HandlerFunc(verificationHandler.Reject),
			),
		),
	)
	mux.Handle("DELETE /api/v1/submissions/{id}/verification",
		authMw.Authenticate(
			auditMw.Log("verification_reset", "submission")(
				http.HandlerFunc(verificationHandler.Reset),
			),
		),
	)

	// Admin routes
	mux.Handle("GET /api/v1/admin/users",
		authMw.Authenticate(
			rbacMw.RequireRole(handlers.RoleAdmin)(
				http.HandlerFunc(userHandler.List),
			),
		),
	)
	mux.Handle("POST /api/v1/admin/users/{id}/roles/{role}",
		authMw.Authenticate(
			rbacMw.RequireRole(handlers.RoleAdmin)(
				auditMw.Log("role_assign", "user")(
					http.HandlerFunc(userHandler.AssignRole),
				),
			),
		),
	)
	mux.Handle("DELETE /api/v1/admin/users/{id}/roles/{role}",
		authMw.Authenticate(
			rbacMw.RequireRole(handlers.RoleAdmin)(
				auditMw.Log("role_remove", "user")(
					http.HandlerFunc(userHandler.RemoveRole),
				),
			),
		),
	)
	mux.Handle("GET /api/v1/admin/audit-logs",
		authMw.Authenticate(
			rbacMw.RequireRole(handlers.RoleAdmin)(
				http.HandlerFunc(auditLogHandler.List),
			),
		),
	)

	// Uploaded documents
	mux.Handle("GET /documents/", http.StripPrefix("/documents/",
		http.FileServer(http.Dir(documentStore.Root()))))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`)); err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
