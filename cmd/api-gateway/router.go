package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/postgrad-supervision-api/api/swagger"
	"github.com/noah-isme/postgrad-supervision-api/internal/handler"
	"github.com/noah-isme/postgrad-supervision-api/internal/middleware"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/internal/service"
	"github.com/noah-isme/postgrad-supervision-api/pkg/config"
	"github.com/noah-isme/postgrad-supervision-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/postgrad-supervision-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/postgrad-supervision-api/pkg/middleware/requestid"
)

type routeServices struct {
	auth          *service.AuthService
	documents     *service.DocumentService
	reviews       *service.ReviewService
	notifications *service.NotificationService
	progress      *service.ProgressService
	assignments   *service.AssignmentService
	metrics       *service.MetricsService
	db            handler.Pinger
}

func newRouter(cfg *config.Config, logr *zap.Logger, svc routeServices) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.CurrentUserID))
	r.Use(corsmiddleware.New(cfg.FrontendURL, cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.metrics))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	ops := handler.NewMetricsHandler(svc.metrics, svc.db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(svc.auth)
	documentHandler := handler.NewDocumentHandler(svc.documents)
	reviewHandler := handler.NewReviewHandler(svc.reviews)
	notificationHandler := handler.NewNotificationHandler(svc.notifications)
	progressHandler := handler.NewProgressHandler(svc.progress)
	assignmentHandler := handler.NewAssignmentHandler(svc.assignments)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/verify-reset-code", authHandler.VerifyResetCode)
	auth.POST("/reset-password", authHandler.ResetPassword)

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.auth))

	secured.GET("/auth/me", authHandler.Me)
	secured.PUT("/auth/change-password", authHandler.ChangePassword)

	documents := secured.Group("/documents")
	documents.GET("", documentHandler.List)
	documents.POST("", documentHandler.Upload)
	documents.GET("/:id", documentHandler.Get)
	documents.PUT("/:id", documentHandler.Update)
	documents.DELETE("/:id", documentHandler.Delete)
	documents.GET("/:id/download", documentHandler.Download)
	documents.GET("/:id/feedback", reviewHandler.ListFeedback)

	supervisorsOnly := middleware.RequireRoles(models.RoleSupervisor, models.RoleAdministrator)
	documents.POST("/:id/feedback", supervisorsOnly, reviewHandler.AddFeedback)
	documents.POST("/:id/approve", supervisorsOnly, reviewHandler.Approve)

	notifications := secured.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.Delete)
	notifications.DELETE("", notificationHandler.Clear)

	secured.GET("/students/:id/progress", progressHandler.StudentProgress)
	secured.GET("/students/:id/progress/report", progressHandler.Report)
	secured.GET("/students/:id/supervisors", assignmentHandler.Supervision)
	secured.GET("/progress/me", middleware.RequireRoles(models.RoleStudent), progressHandler.MyProgress)
	secured.GET("/supervisors/me/students", middleware.RequireRoles(models.RoleSupervisor), progressHandler.SupervisedStudents)

	adminOnly := middleware.RequireRoles(models.RoleAdministrator)
	secured.POST("/assignments", adminOnly, assignmentHandler.Assign)
	secured.DELETE("/assignments", adminOnly, assignmentHandler.Unassign)

	return r
}
