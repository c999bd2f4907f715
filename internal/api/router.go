// Package api wires the gin router of the institute API: global middleware,
// public routes, admin routes and student routes.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/api/handlers"
	"github.com/hamzaz9912/eliedu/internal/api/middleware"
	"github.com/hamzaz9912/eliedu/internal/auth"
	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/courses"
	"github.com/hamzaz9912/eliedu/internal/crypto"
	"github.com/hamzaz9912/eliedu/internal/notify"
	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"go.uber.org/zap"
)

// Dependencies are the process-wide components the router is built from
type Dependencies struct {
	Store    storage.Store
	Catalog  *courses.Catalog
	Tokens   *auth.TokenManager
	Sealer   *crypto.DocumentSealer
	Notifier notify.Notifier
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.Security))

	userService := service.NewUserService(deps.Store, deps.Tokens, logger)
	registrationService := service.NewRegistrationService(deps.Store, deps.Sealer, deps.Notifier, logger)
	studentService := service.NewStudentService(deps.Store, deps.Tokens, cfg.Site, logger)
	contactService := service.NewContactService(deps.Store, logger)

	siteHandler := handlers.NewSiteHandler(deps.Store, deps.Catalog, logger)
	setupHandler := handlers.NewSetupHandler(userService, logger)
	authHandler := handlers.NewAuthHandler(userService, logger)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, logger)
	studentHandler := handlers.NewStudentHandler(studentService, logger)
	contactHandler := handlers.NewContactHandler(contactService, logger)

	authenticated := middleware.AuthMiddleware(deps.Tokens)

	public := router.Group("/api")
	{
		public.GET("/health", siteHandler.Health)
		public.GET("/courses", siteHandler.Courses)

		public.GET("/verify/:idCardNumber", studentHandler.Verify)
		public.GET("/verify/:idCardNumber/qrcode", studentHandler.QRCode)
		public.POST("/contact", contactHandler.Submit)
		public.POST("/registrations", registrationHandler.Create)

		public.GET("/setup/status", setupHandler.GetStatus)
		public.POST("/setup/admin", setupHandler.PerformSetup)

		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
		public.GET("/auth/users", authHandler.ListUsers)

		public.POST("/user/login", studentHandler.Login)
	}

	admin := router.Group("/api")
	admin.Use(authenticated, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/auth/verify", authHandler.Verify)
		admin.POST("/auth/users", authHandler.CreateUser)

		admin.GET("/registrations", registrationHandler.List)
		admin.PUT("/registrations/:id", registrationHandler.Update)
		admin.GET("/registrations/:id/document", registrationHandler.Document)

		admin.GET("/admin/students", studentHandler.ListStudents)
		admin.POST("/admin/students", studentHandler.IssueCertificate)
	}

	student := router.Group("/api/user")
	student.Use(authenticated, middleware.RequireRole(auth.RoleStudent))
	{
		student.GET("/verify", studentHandler.VerifyToken)
		student.GET("/profile", studentHandler.Profile)
	}

	return router
}
