package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"focustask/internal/config"
	"focustask/internal/gamification"
	"focustask/internal/http/api/handlers"
	"focustask/internal/ratelimit"
	"focustask/internal/security"
	"focustask/internal/settings"
	"focustask/internal/tasks"
	"focustask/internal/users"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	DB       *gorm.DB
	Issuer   *security.TokenIssuer
	Users    *users.Service
	Tasks    *tasks.Service
	Settings *settings.Service
	Engine   *gamification.Engine
	Limiter  *ratelimit.Manager
	Config   config.Config
}

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	r.Use(RequestLogger())
	r.Use(CORS(deps.Config.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	root := r.Group("/api")

	authHandler := handlers.NewAuthHandler(deps.Users)
	root.POST("/auth/register", authHandler.Register)
	root.POST("/auth/login", authHandler.Login)

	userHandler := handlers.NewUserHandler(deps.Users)
	achievementHandler := handlers.NewAchievementHandler(deps.DB, deps.Engine)
	rewardHandler := handlers.NewRewardHandler(deps.DB, deps.Engine)

	// Catalog and community routes stay public.
	root.GET("/achievements", achievementHandler.List)
	root.GET("/rewards", rewardHandler.List)
	root.GET("/rewards/category/:category", rewardHandler.ByCategory)
	root.GET("/users/leaderboard", userHandler.Leaderboard)
	root.GET("/users/:id", userHandler.Get)

	authed := root.Group("")
	authed.Use(Auth(deps.DB, deps.Issuer))
	authed.Use(RateLimit(deps.Limiter, deps.Config.RatePerSec))

	authed.GET("/auth/me", authHandler.Me)

	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	tasksGroup := authed.Group("/tasks")
	tasksGroup.POST("", taskHandler.Create)
	tasksGroup.GET("", taskHandler.List)
	tasksGroup.GET("/today", taskHandler.Today)
	tasksGroup.GET("/:id", taskHandler.Get)
	tasksGroup.PATCH("/:id", taskHandler.Update)
	tasksGroup.PATCH("/:id/complete", taskHandler.Complete)
	tasksGroup.DELETE("/:id", taskHandler.Delete)

	achievementsGroup := authed.Group("/achievements")
	achievementsGroup.GET("/user", achievementHandler.UserAchievements)
	achievementsGroup.GET("/user/progress", achievementHandler.Progress)
	achievementsGroup.GET("/user/new", achievementHandler.New)
	achievementsGroup.POST("/check", achievementHandler.Check)
	achievementsGroup.POST("/unlock-missing", achievementHandler.UnlockMissing)

	rewardsGroup := authed.Group("/rewards")
	rewardsGroup.GET("/user", rewardHandler.UserRewards)
	rewardsGroup.GET("/available", rewardHandler.Available)
	rewardsGroup.GET("/stats", rewardHandler.Stats)
	rewardsGroup.POST("/:id/unlock", rewardHandler.Unlock)
	rewardsGroup.POST("/unlock-by-points", rewardHandler.UnlockByPoints)

	settingsHandler := handlers.NewSettingsHandler(deps.Settings)
	settingsGroup := authed.Group("/settings")
	settingsGroup.GET("", settingsHandler.Get)
	settingsGroup.PATCH("", settingsHandler.Update)

	authedUsers := authed.Group("/users")
	authedUsers.GET("/profile", userHandler.Profile)
	authedUsers.PATCH("/profile", userHandler.UpdateProfile)
	authedUsers.POST("/change-password", userHandler.ChangePassword)
	authedUsers.DELETE("/account", userHandler.DeleteAccount)
}
