package models

import "time"

type RequestStatus string

// Fulfilled and Cancelled are terminal.
const (
	RequestPending   RequestStatus = "Pending"
	RequestFulfilled RequestStatus = "Fulfilled"
	RequestCancelled RequestStatus = "Cancelled"
)

func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestCancelled
}

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// ParseUrgency accepts Low, Medium or High; empty defaults to Medium.
func ParseUrgency(s string) (Urgency, bool) {
	switch Urgency(s) {
	case "":
		return UrgencyMedium, true
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(s), true
	}
	return "", false
}

// BloodRequest is a patient's request for blood.
type BloodRequest struct {
	ID            string        `bson:"id" json:"id"`
	UserID        string        `bson:"userId" json:"userId"` // owner
	PatientName   string        `bson:"patientName" json:"patientName"`
	BloodType     BloodType     `bson:"bloodType" json:"bloodType"`
	Location      string        `bson:"location" json:"location"`
	Coordinates   *GeoPoint     `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Geohash       string        `bson:"geohash,omitempty" json:"geohash,omitempty"`
	Urgency       Urgency       `bson:"urgency" json:"urgency"`
	Status        RequestStatus `bson:"status" json:"status"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
	ContactPerson string        `bson:"contactPerson,omitempty" json:"contactPerson,omitempty"`
	ContactPhone  string        `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
	ContactEmail  string        `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (r BloodRequest) RecordID() string   { return r.ID }
func (r BloodRequest) OwnerID() string    { return r.UserID }
func (r BloodRequest) Point() *GeoPoint   { return r.Coordinates }
func (r BloodRequest) Created() time.Time { return r.CreatedAt }
