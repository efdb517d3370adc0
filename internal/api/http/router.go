package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/api/http/handlers"
	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/observability"
)

const defaultBodyLimit = 4 << 20

// NewApp builds the fiber application with the JSON error renderer installed.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, uploadLimit int64) *fiber.App {
	bodyLimit := defaultBodyLimit
	if limit := int(uploadLimit) + 1<<20; limit > bodyLimit {
		bodyLimit = limit
	}
	return fiber.New(fiber.Config{
		AppName:      name,
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler(logger, metrics),
	})
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Departments    *handlers.DepartmentsHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Phonebook      *handlers.PhonebookHandler
	News           *handlers.NewsHandler
	AuthMiddleware *auth.AuthMiddleware
	Authorizer     *auth.Authorizer
	Metrics        *observability.Metrics
	UploadsDir     string
	UploadsPrefix  string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadsDir != "" {
		app.Static(cfg.UploadsPrefix, cfg.UploadsDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequirePermission(cfg.Authorizer))

	protected.Post("/auth/logout", cfg.Auth.Logout)
	protected.Get("/auth/me", cfg.Auth.Me)

	protected.Get("/structure", cfg.Departments.Structure)

	departments := protected.Group("/departments")
	departments.Get("/", cfg.Departments.List)
	departments.Post("/", cfg.Departments.Create)
	departments.Get("/hierarchy", cfg.Departments.Hierarchy)
	departments.Get("/tree", cfg.Departments.Tree)
	departments.Get("/with-employees", cfg.Departments.WithEmployees)
	departments.Get("/:id", cfg.Departments.Get)
	departments.Put("/:id", cfg.Departments.Update)
	departments.Delete("/:id", cfg.Departments.Delete)
	departments.Put("/:id/parent", cfg.Departments.Move)
	departments.Get("/:id/usage", cfg.Departments.Usage)

	users := protected.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)

	positions := protected.Group("/positions")
	positions.Get("/", cfg.Staff.ListPositions)
	positions.Post("/", cfg.Staff.CreatePosition)
	positions.Get("/:id", cfg.Staff.GetPosition)
	positions.Put("/:id", cfg.Staff.UpdatePosition)
	positions.Delete("/:id", cfg.Staff.DeletePosition)

	employees := protected.Group("/employees")
	employees.Get("/", cfg.Staff.ListEmployees)
	employees.Post("/", cfg.Staff.CreateEmployee)
	employees.Get("/:id", cfg.Staff.GetEmployee)
	employees.Put("/:id", cfg.Staff.UpdateEmployee)
	employees.Delete("/:id", cfg.Staff.DeleteEmployee)

	protected.Get("/phonebook", cfg.Phonebook.List)
	protected.Get("/phonebook/export", cfg.Phonebook.Export)

	news := protected.Group("/news")
	news.Get("/", cfg.News.List)
	news.Post("/", cfg.News.Create)
	news.Post("/images", cfg.News.UploadImage)
	news.Get("/:id", cfg.News.Get)
	news.Put("/:id", cfg.News.Update)
	news.Patch("/:id/publish", cfg.News.Publish)
	news.Delete("/:id", cfg.News.Delete)
}
