package models

import "time"

// Donation is the append-only record written when an offer is accepted.
type Donation struct {
	ID           string    `bson:"id" json:"id"`
	DonorID      string    `bson:"donorId" json:"donorId"`
	DonorName    string    `bson:"donorName" json:"donorName"`
	RequestID    string    `bson:"requestId" json:"requestId"`
	BloodType    BloodType `bson:"bloodType" json:"bloodType"`
	Location     string    `bson:"location" json:"location"`
	DonationDate time.Time `bson:"donationDate" json:"donationDate"`
}
