package models

import "time"

type NotificationType string

const (
	NotificationRequestMatch  NotificationType = "request_match"
	NotificationOfferAccepted NotificationType = "offer_accepted"
	NotificationOfferRejected NotificationType = "offer_rejected"
)

// Notification is an in-app inbox entry. IsRead only moves false -> true.
type Notification struct {
	ID        string           `bson:"id" json:"id"`
	UserID    string           `bson:"userId" json:"userId"` // recipient
	Message   string           `bson:"message" json:"message"`
	Type      NotificationType `bson:"type" json:"type"`
	RelatedID string           `bson:"relatedId" json:"relatedId"` // request or offer id
	IsRead    bool             `bson:"isRead" json:"isRead"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt"`
	ReadAt    *time.Time       `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

// Title is the short heading used by push and email channels.
func (n Notification) Title() string {
	switch n.Type {
	case NotificationRequestMatch:
		return "New donation offer"
	case NotificationOfferAccepted:
		return "Offer accepted"
	case NotificationOfferRejected:
		return "Offer not accepted"
	}
	return "BloodSync"
}
