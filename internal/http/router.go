package http

import (
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/ai"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/service"
	"github.com/gin-gonic/gin"
)

// Deps is everything the router needs. Services are already wired to a
// store; the router only knows about transport.
type Deps struct {
	Cfg         config.Config
	Prom        *observability.Prom
	Tokens      middlewares.TokenVerifier
	Auth        handlers.Authenticator
	Courses     *service.CourseService
	Enrollments handlers.EnrollmentManager
	Admin       handlers.AdminOps
	AI          ai.Asker
	Limits      middlewares.LimitStore
	Ready       map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(baseChain(d)...)

	// health
	h := handlers.NewHealthHandler(d.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	if d.Limits == nil {
		d.Limits = middlewares.NewMemoryLimitStore()
	}
	if d.AI == nil {
		d.AI = ai.Disabled{}
	}

	authMw := middlewares.NewAuthMiddleware(d.Tokens)
	requireAuth := authMw.RequireAuth()

	authLimit := middlewares.NewRateLimiter(d.Limits, d.Cfg.RateLimitAuthPerMin, time.Minute, d.Prom).
		RateLimiterMiddleware(middlewares.KeyByIP)
	aiLimit := middlewares.NewRateLimiter(d.Limits, 10, time.Minute, d.Prom).
		RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// auth
	authHandler := handlers.NewAuthHandler(d.Auth, d.Cfg)
	authGroup := r.Group("/auth")
	authGroup.POST("/register", authLimit, authHandler.SignUp)
	authGroup.POST("/login", authLimit, authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	// courses
	coursesHandler := handlers.NewCoursesHandler(d.Courses)
	r.GET("/courses", coursesHandler.List)
	r.GET("/courses/:id", coursesHandler.Get)
	r.POST("/courses", requireAuth, coursesHandler.Create)
	r.PATCH("/courses/:id", requireAuth, coursesHandler.Update)
	r.DELETE("/courses/:id", requireAuth, coursesHandler.Delete)

	// lessons
	lessonsHandler := handlers.NewLessonsHandler(d.Courses)
	r.GET("/lessons/detail/:id", lessonsHandler.Get)
	r.GET("/lessons/:courseId", lessonsHandler.ListByCourse)
	r.POST("/lessons/:courseId", requireAuth, lessonsHandler.Create)
	r.PATCH("/lessons/:id", requireAuth, lessonsHandler.Update)
	r.PATCH("/lessons/:id/video", requireAuth, lessonsHandler.SetVideo)
	r.DELETE("/lessons/:id", requireAuth, lessonsHandler.Delete)

	// enrollments
	enrollmentsHandler := handlers.NewEnrollmentsHandler(d.Enrollments)
	enrollGroup := r.Group("/enrollments", requireAuth)
	enrollGroup.POST("", enrollmentsHandler.Create)
	enrollGroup.GET("", enrollmentsHandler.ListMine)
	enrollGroup.PATCH("/:id", enrollmentsHandler.UpdateProgress)
	enrollGroup.PATCH("/:id/progress", enrollmentsHandler.UpdateProgress)
	enrollGroup.DELETE("/:id", enrollmentsHandler.Delete)

	// ai
	aiHandler := handlers.NewAIHandler(d.AI)
	r.POST("/ai/ask", requireAuth, aiLimit, aiHandler.Ask)

	// admin
	adminHandler := handlers.NewAdminHandler(d.Admin)
	adminGroup := r.Group("/admin", requireAuth)
	adminGroup.GET("/users", middlewares.RequireRoles(d.Prom, service.StaffRoles...), adminHandler.ListUsers)
	adminGroup.GET("/users/:id", middlewares.RequireRoles(d.Prom, service.StaffRoles...), adminHandler.GetUser)
	adminGroup.PUT("/users/:id/role", middlewares.RequireRoles(d.Prom, access.RoleAdmin), adminHandler.UpdateRole)
	adminGroup.DELETE("/users/:id", middlewares.RequireRoles(d.Prom, access.RoleAdmin), adminHandler.DeleteUser)
	adminGroup.GET("/statistics", middlewares.RequireRoles(d.Prom, service.StaffRoles...), adminHandler.Statistics)
	adminGroup.GET("/courses-stats", middlewares.RequireRoles(d.Prom, service.CourseStatsRoles...), adminHandler.CourseStats)

	return r
}
