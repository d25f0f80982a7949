// File: bloodsync/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodsync/config"
	"bloodsync/cron"
	"bloodsync/database"
	"bloodsync/database/repository"
	"bloodsync/handlers"
	"bloodsync/middleware"
	"bloodsync/routes"
	"bloodsync/services/admin"
	"bloodsync/services/notification"
	"bloodsync/services/offer"
	"bloodsync/services/proximity"
	"bloodsync/services/request"
	"bloodsync/services/tasks"
	"bloodsync/services/user"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Record store.
	var (
		repos       *repository.Repositories
		mongoClient *mongo.Client
	)
	if config.UsesMemoryStore() {
		logger.Warn("main: using the in-process store, data is lost on restart")
		repos = repository.NewMemoryRepositories()
	} else {
		if err := database.InitDB(ctx); err != nil {
			logger.Fatal("main: MongoDB unavailable", zap.Error(err))
		}
		mongoClient = database.MongoClient
		repos = repository.NewMongoRepositories(database.Database())
	}

	// Redis is optional: without it the proximity and token caches are off.
	if err := utils.InitCache(); err != nil {
		logger.Warn("main: Redis cache unavailable, continuing without cache", zap.Error(err))
	}
	cache := utils.GetCacheClient()
	utils.StartHealthMonitor(ctx, []*redis.Client{cache}, mongoClient)

	// Identity and push.
	var verifier middleware.TokenVerifier = &utils.JWTVerifier{Secret: []byte(config.AppConfig.JWTSecret)}
	if config.FirebaseEnabled() {
		if err := utils.FirebaseInit(ctx); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		verifier = &utils.FirebaseVerifier{Client: utils.AuthClient}
	} else {
		logger.Warn("main: Firebase not configured, accepting HS256 tokens and disabling push")
	}

	// Notification fan-out.
	dispatcher := notification.NewDispatcher(logger, buildSenders(logger)...)
	dispatcher.MaxAttempts = config.AppConfig.NotifyMaxAttempts
	dispatcher.Backoff = config.AppConfig.NotifyBackoff
	dispatcher.SendTimeout = config.AppConfig.NotifySendTimeout

	hub := notification.NewHub()
	notificationService := notification.NewNotificationService(repos.Notifications, repos.Users, dispatcher, hub, logger)

	var worker *asynq.Server
	if config.AppConfig.AsynqEnabled {
		queueClient := asynq.NewClient(cron.RedisQueueOpt())
		defer queueClient.Close()
		dispatcher.Requeuer = tasks.NewAsynqRequeuer(queueClient)
		worker = cron.InitDeliveryWorker(ctx, notificationService)
	}

	// Services.
	engine := proximity.NewEngine(cache, config.AppConfig.ProximityCacheTTL, logger)
	proximityService := proximity.NewProximityService(engine, repos.Requests, repos.Users, config.AppConfig.DefaultRadiusKm)
	userService := user.NewUserService(repos.Users, repos.Donations)
	requestService := request.NewRequestService(repos.Requests)
	offerService := offer.NewOfferService(repos, notificationService, logger)
	adminService := admin.NewAdminService(repos)

	// Writes that change search results invalidate the proximity cache.
	userService.Cache = engine
	requestService.Cache = engine
	offerService.Cache = engine

	userHandler := handlers.NewUserHandler(userService, proximityService)
	requestHandler := handlers.NewRequestHandler(requestService, offerService, proximityService)
	offerHandler := handlers.NewOfferHandler(offerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, hub)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Auth: middleware.AuthMiddleware(verifier, cache),

		// Profile endpoints.
		UpsertProfile:   userHandler.UpsertProfileHandler,
		GetMyProfile:    userHandler.GetMyProfileHandler,
		SetAvailability: userHandler.SetAvailabilityHandler,
		NearbyDonors:    userHandler.NearbyDonorsHandler,
		ListMyDonations: userHandler.ListMyDonationsHandler,

		// Request endpoints.
		CreateRequest:  requestHandler.CreateRequestHandler,
		ListMyRequests: requestHandler.ListMyRequestsHandler,
		NearbyRequests: requestHandler.NearbyRequestsHandler,
		GetRequest:     requestHandler.GetRequestHandler,
		CancelRequest:  requestHandler.CancelRequestHandler,

		// Offer endpoints.
		CreateOffer:       offerHandler.CreateOfferHandler,
		ListRequestOffers: offerHandler.ListRequestOffersHandler,
		ListMyOffers:      offerHandler.ListMyOffersHandler,
		RespondToOffer:    offerHandler.RespondToOfferHandler,

		// Notification endpoints.
		ListNotifications:  notificationHandler.ListNotificationsHandler,
		UnreadCount:        notificationHandler.UnreadCountHandler,
		MarkRead:           notificationHandler.MarkReadHandler,
		MarkAllRead:        notificationHandler.MarkAllReadHandler,
		NotificationSocket: notificationHandler.NotificationSocketHandler,

		// Admin endpoints.
		AdminStats:     adminHandler.StatsHandler,
		AdminRequests:  adminHandler.AllRequestsHandler,
		AdminDonations: adminHandler.AllDonationsHandler,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	router.Use(middleware.TimeoutMiddleware(config.AppConfig.RequestTimeout))

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: failed to disconnect MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// buildSenders picks a sender per channel from what is configured. Email and
// SMS fall back to a logging sender.
func buildSenders(logger *zap.Logger) []notification.Sender {
	var senders []notification.Sender
	if utils.FCMClient != nil {
		senders = append(senders, notification.NewFCMSender(utils.FCMClient))
	}
	if config.AppConfig.ResendAPIKey != "" {
		senders = append(senders, notification.NewEmailSender(config.AppConfig.ResendAPIKey, config.AppConfig.ResendFromEmail))
	} else {
		senders = append(senders, notification.NewLogSender(notification.ChannelEmail, logger))
	}
	if config.AppConfig.TwilioAccountSID != "" && config.AppConfig.TwilioAuthToken != "" {
		senders = append(senders, notification.NewTwilioSender(
			config.AppConfig.TwilioAccountSID,
			config.AppConfig.TwilioAuthToken,
			config.AppConfig.TwilioFromNumber,
		))
	} else {
		senders = append(senders, notification.NewLogSender(notification.ChannelSMS, logger))
	}
	return senders
}
