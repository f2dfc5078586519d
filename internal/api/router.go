package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskhive/task-tracker/internal/api/handler"
	"github.com/taskhive/task-tracker/internal/api/middleware"
	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
	"github.com/taskhive/task-tracker/internal/infrastructure/http/handlers"
)

// Deps carries the wired services the router needs. Construction of
// repositories, codecs and services happens in main so the router stays a
// pure routing concern.
type Deps struct {
	AuthService ports.AuthService
	TaskService ports.TaskService
	Mongo       *mongo.Database
	Redis       *redis.Client
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("tasktracker"))

	// Every request passes the authentication gate; only a malformed
	// credential short-circuits, everything else proceeds anonymously and
	// is decided by per-route RBAC.
	e.Use(middleware.Auth(deps.AuthService, deps.Log))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	taskHandler := handler.NewTaskHandler(deps.TaskService)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/info", authHandler.Info, middleware.RBAC(domain.RoleUser, domain.RoleAdmin))
	e.GET("/auth/users", authHandler.Users, middleware.RBAC(domain.RoleAdmin))
	e.DELETE("/auth/users/:id", authHandler.DeleteUser, middleware.RBAC(domain.RoleAdmin))

	// --- Task routes ---
	tasks := e.Group("/tasks", middleware.RBAC(domain.RoleUser, domain.RoleAdmin))
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Replace)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.PUT("/:id/status", taskHandler.UpdateStatus)
	tasks.PATCH("/:id/status", taskHandler.PatchStatus)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
