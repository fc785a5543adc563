package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/config"
	"github.com/avoroshilov/lessonbook/internal/service"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Users    *service.UserService
	Subjects *service.SubjectService
	Teachers *service.TeacherService
	Slots    *service.SlotService
	Bookings *service.BookingService
	Settings *service.SettingsService
	Reports  *service.ReportService
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	services Services
	auth     *authManager
	logger   *zap.Logger
}

// New assembles the Fiber app with all routes registered.
func New(cfg *config.Config, services Services, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "lessonbook",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	s := &Server{
		app:      app,
		cfg:      cfg,
		services: services,
		auth:     newAuthManager(cfg),
		logger:   logger,
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "X-Total-Count",
		AllowCredentials: true,
	}))
	app.Use(s.requestLogger())

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/logout", s.logout)
	auth.Get("/me", s.requireAuth, s.me)

	subjects := api.Group("/subjects")
	subjects.Get("/", s.listSubjects)
	subjects.Get("/:id", s.getSubject)
	subjects.Post("/", s.requireAdmin, s.createSubject)
	subjects.Patch("/:id", s.requireAdmin, s.patchSubject)
	subjects.Delete("/:id", s.requireAdmin, s.deleteSubject)

	teachers := api.Group("/teachers")
	teachers.Get("/", s.listTeachers)
	teachers.Get("/:id", s.getTeacher)
	teachers.Post("/", s.requireAdmin, s.createTeacher)
	teachers.Patch("/:id", s.requireAdmin, s.patchTeacher)
	teachers.Put("/:id/subjects", s.requireAdmin, s.setTeacherSubjects)
	teachers.Delete("/:id", s.requireAdmin, s.deleteTeacher)

	users := api.Group("/users", s.requireAdmin)
	users.Get("/", s.listUsers)
	users.Get("/:id", s.getUser)
	users.Post("/", s.createUser)
	users.Patch("/:id", s.patchUser)
	users.Delete("/:id", s.deleteUser)

	slots := api.Group("/slots")
	slots.Get("/", s.listSlots)
	slots.Get("/:id", s.getSlot)
	slots.Post("/generate", s.requireAdmin, s.generateSlots)
	slots.Patch("/:id", s.requireAdmin, s.patchSlot)
	slots.Delete("/:id", s.requireAdmin, s.deleteSlot)

	// Booking creation stays open for the bot-facing flow; the rest of the
	// ledger is admin-only.
	bookings := api.Group("/bookings")
	bookings.Post("/", s.createBooking)
	bookings.Get("/", s.requireAdmin, s.listBookings)
	bookings.Get("/export.csv", s.requireAdmin, s.exportBookings)
	bookings.Get("/:id", s.requireAdmin, s.getBooking)
	bookings.Patch("/:id", s.requireAdmin, s.patchBooking)
	bookings.Delete("/:id", s.requireAdmin, s.deleteBooking)

	admin := api.Group("/admin", s.requireAdmin)
	admin.Get("/settings", s.getSettings)
	admin.Put("/settings", s.putSettings)
	admin.Get("/reports/teacher-load", s.teacherLoadReport)
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		s.logger.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		return err
	}
}

// Listen blocks serving HTTP until Shutdown.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.HTTPAddr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
