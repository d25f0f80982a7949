package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMSender delivers push notifications through Firebase Cloud Messaging.
type FCMSender struct {
	Client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{Client: client}
}

func (s *FCMSender) Channel() Channel { return ChannelPush }

func (s *FCMSender) Send(ctx context.Context, to Recipient, msg Message) (SendResult, error) {
	if to.FCMToken == "" {
		return SendResult{}, errNoAddress
	}

	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["role"] = "user"

	fcmMsg := &messaging.Message{
		Token: to.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := s.Client.Send(ctx, fcmMsg)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to send FCM message: %w", err)
	}
	return SendResult{ID: id}, nil
}
