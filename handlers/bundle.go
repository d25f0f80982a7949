// File: bloodsync/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Auth guards every /api route.
	Auth gin.HandlerFunc

	// Profile endpoints
	UpsertProfile   gin.HandlerFunc
	GetMyProfile    gin.HandlerFunc
	SetAvailability gin.HandlerFunc
	NearbyDonors    gin.HandlerFunc
	ListMyDonations gin.HandlerFunc

	// Request endpoints
	CreateRequest  gin.HandlerFunc
	ListMyRequests gin.HandlerFunc
	NearbyRequests gin.HandlerFunc
	GetRequest     gin.HandlerFunc
	CancelRequest  gin.HandlerFunc

	// Offer endpoints
	CreateOffer       gin.HandlerFunc
	ListRequestOffers gin.HandlerFunc
	ListMyOffers      gin.HandlerFunc
	RespondToOffer    gin.HandlerFunc

	// Notification endpoints
	ListNotifications  gin.HandlerFunc
	UnreadCount        gin.HandlerFunc
	MarkRead           gin.HandlerFunc
	MarkAllRead        gin.HandlerFunc
	NotificationSocket gin.HandlerFunc

	// Admin endpoints
	AdminStats     gin.HandlerFunc
	AdminRequests  gin.HandlerFunc
	AdminDonations gin.HandlerFunc
}
