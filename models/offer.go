package models

import "time"

type OfferStatus string

// Accepted and Rejected are terminal.
const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferRejected
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Offer is a donor's proposal to fulfil one request. Stored in donationMatches.
// The donor fields are a snapshot taken when the offer is made.
type Offer struct {
	ID               string      `bson:"id" json:"id"`
	RequestID        string      `bson:"requestId" json:"requestId"`
	RequestUserID    string      `bson:"requestUserId" json:"requestUserId"`
	DonorID          string      `bson:"donorId" json:"donorId"`
	DonorName        string      `bson:"donorName" json:"donorName"`
	DonorBloodType   BloodType   `bson:"donorBloodType" json:"donorBloodType"`
	DonorLocation    string      `bson:"donorLocation" json:"donorLocation"`
	DonorEmail       string      `bson:"donorEmail,omitempty" json:"donorEmail,omitempty"`
	DonorPhoneNumber string      `bson:"donorPhoneNumber,omitempty" json:"donorPhoneNumber,omitempty"`
	BloodType        BloodType   `bson:"bloodType" json:"bloodType"`
	Status           OfferStatus `bson:"status" json:"status"`
	MatchDate        time.Time   `bson:"matchDate" json:"matchDate"`
	RespondedAt      *time.Time  `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	// AutoRejected marks an offer closed because its request left Pending,
	// not by the owner's decision.
	AutoRejected bool `bson:"autoRejected,omitempty" json:"autoRejected,omitempty"`
}
