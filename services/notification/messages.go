package notification

import (
	"fmt"

	"bloodsync/models"
)

func RequestMatchMessage(bloodType models.BloodType) string {
	return fmt.Sprintf("A donor has offered to fulfill your request for %s blood.", bloodType)
}

func OfferAcceptedMessage(bloodType models.BloodType) string {
	return fmt.Sprintf("Your donation offer for %s blood has been accepted!", bloodType)
}

// OfferRejectedMessage refers to the request by its short id.
func OfferRejectedMessage(requestID string) string {
	short := requestID
	if len(short) > 5 {
		short = short[:5]
	}
	return fmt.Sprintf("Your offer for request #%s was not accepted this time.", short)
}
