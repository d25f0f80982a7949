package notification

import (
	"context"
	"errors"
)

// Channel is an external delivery route.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

var errNoAddress = errors.New("recipient has no address for channel")

// Recipient holds the contact details a sender may need.
type Recipient struct {
	UserID   string
	Name     string
	Email    string
	Phone    string
	FCMToken string
}

// Address returns the recipient's address on ch, or "" when there is none.
func (r Recipient) Address(ch Channel) string {
	switch ch {
	case ChannelPush:
		return r.FCMToken
	case ChannelEmail:
		return r.Email
	case ChannelSMS:
		return r.Phone
	}
	return ""
}

// Message is the channel-neutral content of an alert.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendResult identifies the message at the provider.
type SendResult struct {
	ID string
}

// Sender delivers a message over one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, to Recipient, msg Message) (SendResult, error)
}
