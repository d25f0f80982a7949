package config

import (
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirebaseEnabled reports whether a service account is configured.
func FirebaseEnabled() bool {
	return AppConfig.FirebaseCredentialsFile != "" || AppConfig.FirebaseProjectID != ""
}

// FirebaseAppConfig returns the app config, or nil to let the SDK infer it.
func FirebaseAppConfig() *firebase.Config {
	if AppConfig.FirebaseProjectID == "" {
		return nil
	}
	return &firebase.Config{ProjectID: AppConfig.FirebaseProjectID}
}

// FirebaseClientOptions returns the client options for the Firebase SDK.
func FirebaseClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if AppConfig.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(AppConfig.FirebaseCredentialsFile))
	}
	return opts
}
