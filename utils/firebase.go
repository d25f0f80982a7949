// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"bloodsync/config"
	"bloodsync/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
)

var (
	FCMClient  *messaging.Client
	AuthClient *auth.Client
)

// FirebaseInit initializes the Firebase App with its Messaging and Auth clients.
func FirebaseInit(ctx context.Context) error {
	app, err := firebase.NewApp(ctx, config.FirebaseAppConfig(), config.FirebaseClientOptions()...)
	if err != nil {
		return fmt.Errorf("firebase: error initializing app: %w", err)
	}

	msg, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return fmt.Errorf("firebase: error getting Auth client: %w", err)
	}

	FCMClient = msg
	AuthClient = authClient
	return nil
}

// IDTokenVerifier is the part of *auth.Client used to check bearer tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier turns Firebase ID tokens into callers. The role comes from
// a "role" custom claim and defaults to donor.
type FirebaseVerifier struct {
	Client IDTokenVerifier
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*models.Caller, int64, error) {
	t, err := v.Client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, 0, err
	}
	caller := &models.Caller{UserID: t.UID, Role: models.RoleDonor}
	if email, ok := t.Claims["email"].(string); ok {
		caller.Email = email
	}
	if role, ok := t.Claims["role"].(string); ok && role != "" {
		caller.Role = models.Role(role)
	}
	return caller, t.Expires, nil
}
