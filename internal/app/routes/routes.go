package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/mclass/internal/app/controllers"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/middleware"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth   *controllers.AuthController
	Class  *controllers.ClassController
	Apply  *controllers.ApplyController
	Health *controllers.HealthController
}

// Guards groups the middleware protecting the write routes
type Guards struct {
	Auth *middleware.AuthMiddleware
	Lock *middleware.LockMiddleware
	// RateLimit may be nil when rate limiting is disabled
	RateLimit gin.HandlerFunc
	// ResolveClass maps an application id to its class for lock keys
	ResolveClass middleware.ClassResolver
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, guards Guards) {
	router.GET("/health", ctrl.Health.Health)
	router.GET("/ping", ctrl.Health.Ping)

	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	classes := v1.Group("/classes")
	{
		classes.GET("", ctrl.Class.ListClasses)
		classes.GET("/:id", ctrl.Class.GetClass)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(guards.Auth.JWTAuth())

	authenticated.GET("/auth/me", ctrl.Auth.Me)

	// Writes that touch a class seat counter are throttled per user and admitted one at a time per class
	write := withRateLimit(guards.RateLimit)

	authenticated.POST("/classes/:id/apply",
		append(write, guards.Lock.ByClassParam("id"), ctrl.Apply.Apply)...)
	authenticated.GET("/applications/me", ctrl.Apply.ListMine)
	authenticated.DELETE("/applications/:id",
		append(write, guards.Lock.ByResolvedClass("id", guards.ResolveClass), ctrl.Apply.Cancel)...)

	admin := authenticated.Group("")
	admin.Use(guards.Auth.RoleRequired(models.RoleAdmin))
	{
		admin.POST("/classes", ctrl.Class.CreateClass)
		admin.PUT("/classes/:id", guards.Lock.ByClassParam("id"), ctrl.Class.UpdateClass)
		admin.DELETE("/classes/:id", guards.Lock.ByClassParam("id"), ctrl.Class.DeleteClass)
		admin.GET("/classes/:id/applications", ctrl.Apply.ListByClass)
		admin.POST("/applications/:id/approve",
			guards.Lock.ByResolvedClass("id", guards.ResolveClass), ctrl.Apply.Approve)
	}
}

func withRateLimit(limit gin.HandlerFunc) []gin.HandlerFunc {
	if limit == nil {
		return nil
	}
	return []gin.HandlerFunc{limit}
}
