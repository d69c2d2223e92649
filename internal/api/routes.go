package api

import (
	"alcyxob/fitness-analysis/internal/domain" // Needed for RoleMiddleware
	"alcyxob/fitness-analysis/internal/service"
	"alcyxob/fitness-analysis/internal/storage"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	sweepToken string,
	authService service.AuthService,
	stagingService service.StagingService,
	libraryService service.LibraryService,
	fileStorage storage.FileStorage,
) {

	authHandler := NewAuthHandler(authService)
	sessionHandler := NewSessionHandler(stagingService, fileStorage, sweepToken)
	exerciseHandler := NewExerciseHandler(libraryService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Scheduler endpoint, guarded by a shared token instead of a JWT.
	router.POST("/internal/sweep", sessionHandler.Sweep)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Exercise Library Routes ---
		// The library is shared: both roles can browse what has been imported.
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExercise)
		}

		// --- Video Analysis Routes ---
		// Only trainers run video analysis and import into the library.
		analysisGroup := protected.Group("/analysis")
		analysisGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			// POST /api/v1/analysis/upload-url
			analysisGroup.POST("/upload-url", sessionHandler.RequestUploadURL)
			// POST /api/v1/analysis/sessions
			analysisGroup.POST("/sessions", sessionHandler.CreateSession)
			// GET /api/v1/analysis/sessions/{sessionId}
			analysisGroup.GET("/sessions/:sessionId", sessionHandler.GetSession)
			// POST /api/v1/analysis/sessions/{sessionId}/import
			analysisGroup.POST("/sessions/:sessionId/import", sessionHandler.ImportExercises)
		}
	}
}
