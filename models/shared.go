package models

// DeliveryPayload is the queued form of an external notification that failed every attempt.
type DeliveryPayload struct {
	NotificationID string           `json:"notificationId"`
	UserID         string           `json:"userId"`
	Channel        string           `json:"channel"` // "push", "email" or "sms"
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	RelatedID      string           `json:"relatedId"`
	Attempt        int              `json:"attempt"`
}
