// models/user.go
package models

import "time"

type Role string

const (
	RoleDonor   Role = "donor"
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

type Availability string

const (
	Available   Availability = "Available"
	Unavailable Availability = "Unavailable"
)

// NotificationPreferences selects the external channels a person receives alerts on.
type NotificationPreferences struct {
	SMS   bool `bson:"sms" json:"sms"`
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
}

// DefaultNotificationPreferences enables every channel.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{SMS: true, Email: true, Push: true}
}

// Person is a donor, patient or admin. ID is the identity provider's user id.
type Person struct {
	ID               string                  `bson:"id" json:"id"`
	FirstName        string                  `bson:"firstName" json:"firstName"`
	LastName         string                  `bson:"lastName" json:"lastName"`
	Email            string                  `bson:"email" json:"email"`
	PhoneNumber      string                  `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Role             Role                    `bson:"role" json:"role"`
	BloodType        BloodType               `bson:"bloodType" json:"bloodType"`
	Location         string                  `bson:"location" json:"location"`
	Coordinates      *GeoPoint               `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Geohash          string                  `bson:"geohash,omitempty" json:"geohash,omitempty"` // derived from Coordinates
	Availability     Availability            `bson:"availability" json:"availability"`
	IsDonor          bool                    `bson:"isDonor" json:"isDonor"`
	LastDonationDate *time.Time              `bson:"lastDonationDate,omitempty" json:"lastDonationDate,omitempty"`
	HealthConditions string                  `bson:"healthConditions,omitempty" json:"healthConditions,omitempty"`
	FCMToken         string                  `bson:"fcmToken,omitempty" json:"-"`
	Preferences      NotificationPreferences `bson:"notificationPreferences" json:"notificationPreferences"`
	CreatedAt        time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName joins first and last name.
func (p *Person) DisplayName() string {
	switch {
	case p.FirstName == "" && p.LastName == "":
		return ""
	case p.LastName == "":
		return p.FirstName
	case p.FirstName == "":
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// DonorProfile is the part of a donor other users may see.
type DonorProfile struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	BloodType        BloodType    `json:"bloodType"`
	Location         string       `json:"location"`
	Availability     Availability `json:"availability"`
	LastDonationDate *time.Time   `json:"lastDonationDate,omitempty"`
}

// Public drops contact details, device tokens and health data.
func (p *Person) Public() DonorProfile {
	return DonorProfile{
		ID:               p.ID,
		Name:             p.DisplayName(),
		BloodType:        p.BloodType,
		Location:         p.Location,
		Availability:     p.Availability,
		LastDonationDate: p.LastDonationDate,
	}
}

func (p Person) RecordID() string   { return p.ID }
func (p Person) OwnerID() string    { return p.ID }
func (p Person) Point() *GeoPoint   { return p.Coordinates }
func (p Person) Created() time.Time { return p.CreatedAt }
