package server

import (
	"time"

	"social-publisher/infrastructure/realtime"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	socialAuthHandler httpHandler.ISocialAuthHandler,
	publishHandler httpHandler.IPublishHandler,
	jobHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "https://localhost:4200", "http://localhost:4201", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)

	// Platform redirects land here without our bearer token; identity rides in
	// the state parameter.
	router.GET("/auth/:platform/callback", socialAuthHandler.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth())

	social := api.Group("/social")
	{
		social.POST("/auth/:platform", socialAuthHandler.StartAuthorization)
		social.GET("/accounts", socialAuthHandler.ListAccounts)
		social.DELETE("/accounts/:accountId", socialAuthHandler.Disconnect)

		social.POST("/publish", publishHandler.Publish)
		social.GET("/jobs/:jobId", publishHandler.JobStatus)
		social.POST("/jobs/:jobId/cancel", publishHandler.Cancel)

		if jobHub != nil {
			social.GET("/stream", jobHub.Serve)
		}
	}

	return router
}
