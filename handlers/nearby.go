package handlers

import (
	"strconv"

	"bloodsync/models"
	"bloodsync/services/proximity"
	"bloodsync/utils"
)

var errBadNearbyQuery = utils.NewAppError(utils.CodeValidation, "invalid nearby query")

// parseNearby reads ?lat&lng&radiusKm&bloodType. lat and lng come together or not at all.
func parseNearby(lat, lng, radius, bloodType string) (proximity.NearbyParams, error) {
	var params proximity.NearbyParams

	switch {
	case lat != "" && lng != "":
		la, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return params, errBadNearbyQuery.Withf("lat must be a number")
		}
		ln, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return params, errBadNearbyQuery.Withf("lng must be a number")
		}
		center := models.GeoPoint{Lat: la, Lng: ln}
		if err := center.Validate(); err != nil {
			return params, errBadNearbyQuery.Withf("%v", err)
		}
		params.Center = &center
	case lat != "" || lng != "":
		return params, errBadNearbyQuery.Withf("lat and lng must be given together")
	}

	if radius != "" {
		r, err := strconv.ParseFloat(radius, 64)
		if err != nil || r <= 0 {
			return params, errBadNearbyQuery.Withf("radiusKm must be a positive number")
		}
		params.RadiusKm = r
	}

	if bloodType != "" {
		bt, err := models.ParseBloodType(bloodType)
		if err != nil {
			return params, errBadNearbyQuery.Withf("%v", err)
		}
		params.BloodType = bt
	}
	return params, nil
}
