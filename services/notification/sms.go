package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioSender delivers SMS through Twilio.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Channel() Channel { return ChannelSMS }

func (s *TwilioSender) Send(ctx context.Context, to Recipient, msg Message) (SendResult, error) {
	if to.Phone == "" {
		return SendResult{}, errNoAddress
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to.Phone)
	params.SetFrom(s.from)
	params.SetBody(smsBody(msg))

	// The Twilio client takes no context; give up waiting when ctx ends.
	type reply struct {
		sid string
		err error
	}
	done := make(chan reply, 1)
	go func() {
		resp, err := s.client.Api.CreateMessage(params)
		if err != nil {
			done <- reply{err: err}
			return
		}
		var sid string
		if resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- reply{sid: sid}
	}()

	select {
	case <-ctx.Done():
		return SendResult{}, fmt.Errorf("failed to send SMS: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return SendResult{}, fmt.Errorf("failed to send SMS: %w", r.err)
		}
		return SendResult{ID: r.sid}, nil
	}
}

// LogSender simulates a channel by logging the message. Used when no provider
// credentials are configured.
type LogSender struct {
	channel Channel
	logger  *zap.Logger
}

func NewLogSender(channel Channel, logger *zap.Logger) *LogSender {
	return &LogSender{channel: channel, logger: logger}
}

func (s *LogSender) Channel() Channel { return s.channel }

func (s *LogSender) Send(ctx context.Context, to Recipient, msg Message) (SendResult, error) {
	addr := to.Address(s.channel)
	if addr == "" {
		return SendResult{}, errNoAddress
	}
	id := "sim-" + uuid.NewString()
	s.logger.Info("simulated notification",
		zap.String("channel", string(s.channel)),
		zap.String("to", addr),
		zap.String("title", msg.Title),
		zap.String("message", msg.Body),
		zap.String("id", id))
	return SendResult{ID: id}, nil
}

func smsBody(msg Message) string {
	if msg.Title == "" {
		return msg.Body
	}
	return msg.Title + ": " + msg.Body
}
