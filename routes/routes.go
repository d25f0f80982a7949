package routes

import (
	"net/http"
	"time"

	"bloodsync/handlers"
	"bloodsync/middleware"
	"bloodsync/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes registers profile and donor endpoints.
func RegisterUserRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	users := api.Group("/users")
	{
		users.POST("/profile", hb.UpsertProfile)
		users.GET("/me", hb.GetMyProfile)
		users.PATCH("/me/availability", hb.SetAvailability)
	}
	api.GET("/donors/nearby", hb.NearbyDonors)
	api.GET("/donations/mine", hb.ListMyDonations)
}

// RegisterRequestRoutes registers blood request and offer endpoints.
func RegisterRequestRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	requests := api.Group("/requests")
	{
		requests.POST("", hb.CreateRequest)
		requests.GET("/mine", hb.ListMyRequests)
		requests.GET("/nearby", hb.NearbyRequests)
		requests.GET("/:id", hb.GetRequest)
		requests.POST("/:id/cancel", hb.CancelRequest)
		requests.POST("/:id/offers", hb.CreateOffer)
		requests.GET("/:id/offers", hb.ListRequestOffers)
	}

	offers := api.Group("/offers")
	{
		offers.GET("/mine", hb.ListMyOffers)
		offers.POST("/:id/respond", hb.RespondToOffer)
	}
}

// RegisterNotificationRoutes registers inbox endpoints.
func RegisterNotificationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", hb.ListNotifications)
		notifications.GET("/unread-count", hb.UnreadCount)
		notifications.POST("/:id/read", hb.MarkRead)
		notifications.POST("/read-all", hb.MarkAllRead)
		notifications.GET("/ws", hb.NotificationSocket)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	adminGroup := api.Group("/admin")
	{
		adminGroup.Use(middleware.AdminOnly())
		adminGroup.GET("/stats", hb.AdminStats)
		adminGroup.GET("/requests", hb.AdminRequests)
		adminGroup.GET("/donations", hb.AdminDonations)
	}
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm BloodSync"})
	})
	r.GET("/metrics", middleware.MetricsHandler())
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)

	api := r.Group("/api")
	api.Use(hb.Auth)
	RegisterUserRoutes(api, hb)
	RegisterRequestRoutes(api, hb)
	RegisterNotificationRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}
