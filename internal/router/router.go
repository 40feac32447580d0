package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/handler"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/middleware"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Subject   *handler.SubjectHandler
	Question  *handler.QuestionHandler
	TestPlan  *handler.TestPlanHandler
	Execution *handler.ExecutionHandler
	AdminUser *handler.AdminUserHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background work of the login rate limiter.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(authService)
	singleSession := middleware.CheckSingleSession(authService)
	authorsOnly := middleware.RequireRole(model.AuthorRoles...)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	loginLimiter := middleware.NewRateLimiter(ctx, cfg.LoginRateLimit, time.Minute)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", requireAuth, singleSession, handlers.Auth.Logout)
		auth.GET("/me", requireAuth, singleSession, handlers.Auth.Me)
	}

	// ─── 2. Authenticated API (JWT + Single Session) ───────────────────
	api := router.Group("/api/v1")
	api.Use(requireAuth, singleSession)

	// Catalogue: everybody reads, authors write.
	{
		api.GET("/subjects", handlers.Subject.ListSubjects)
		api.GET("/subjects/:id", handlers.Subject.GetSubject)
		api.POST("/subjects", authorsOnly, handlers.Subject.CreateSubject)
		api.PUT("/subjects/:id", authorsOnly, handlers.Subject.UpdateSubject)
		api.DELETE("/subjects/:id", authorsOnly, handlers.Subject.DeleteSubject)

		api.GET("/subjects/:id/topics", handlers.Subject.ListTopics)
		api.POST("/subjects/:id/topics", authorsOnly, handlers.Subject.CreateTopic)
		api.PUT("/topics/:id", authorsOnly, handlers.Subject.UpdateTopic)
		api.DELETE("/topics/:id", authorsOnly, handlers.Subject.DeleteTopic)

		api.GET("/topics/:id/subtopics", handlers.Subject.ListSubtopics)
		api.POST("/topics/:id/subtopics", authorsOnly, handlers.Subject.CreateSubtopic)
		api.PUT("/subtopics/:id", authorsOnly, handlers.Subject.UpdateSubtopic)
		api.DELETE("/subtopics/:id", authorsOnly, handlers.Subject.DeleteSubtopic)
	}

	// Question bank: answer keys are only shown to authors.
	questions := api.Group("/questions")
	questions.Use(authorsOnly)
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.GET("/:id", handlers.Question.GetQuestion)
		questions.POST("", handlers.Question.CreateQuestion)
		questions.PUT("/:id", handlers.Question.UpdateQuestion)
		questions.DELETE("/:id", handlers.Question.DeleteQuestion)
	}

	plans := api.Group("/test-plans")
	{
		plans.POST("", handlers.TestPlan.CreatePlan)
		plans.GET("", handlers.TestPlan.ListPlans)
		plans.GET("/:id", handlers.TestPlan.GetPlan)
		plans.PUT("/:id", handlers.TestPlan.UpdatePlan)
		plans.DELETE("/:id", handlers.TestPlan.DeletePlan)
		plans.GET("/:id/executions", middleware.NoStore(), handlers.TestPlan.ListExecutions)
		plans.POST("/:id/executions", handlers.TestPlan.NewAttempt)
	}

	executions := api.Group("/executions/:id")
	executions.Use(middleware.NoStore())
	{
		executions.GET("", handlers.Execution.GetExecution)
		executions.POST("/start", handlers.Execution.Start)
		executions.POST("/answers", handlers.Execution.SubmitAnswer)
		executions.POST("/submit", handlers.Execution.SubmitAll)
		executions.POST("/pause", handlers.Execution.Pause)
		executions.POST("/resume", handlers.Execution.Resume)
		executions.POST("/complete", handlers.Execution.Complete)
	}

	// ─── 3. Admin Group ────────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/users", handlers.AdminUser.ListUsers)
		admin.POST("/users", handlers.AdminUser.CreateUser)
		admin.POST("/executions/:id/abandon", middleware.NoStore(), handlers.Execution.Abandon)
	}

	// ─── 4. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth, singleSession)
	{
		ws.GET("/test-plans/:id/stream", handlers.WS.PlanStream)
	}

	return router
}
