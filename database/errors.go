package database

import "errors"

// ErrNotFound is returned by repositories when no document matches.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey is returned when an insert violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// Collection names.
const (
	UsersCollection         = "users"
	RequestsCollection      = "bloodRequests"
	OffersCollection        = "donationMatches"
	DonationsCollection     = "donations"
	NotificationsCollection = "notifications"
)
