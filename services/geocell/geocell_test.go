package geocell

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"bloodsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bengaluru = models.GeoPoint{Lat: 12.90, Lng: 77.59}

func covered(ranges []Range, key string) bool {
	for _, r := range ranges {
		if r.Contains(key) {
			return true
		}
	}
	return false
}

// destination walks distance metres from origin along bearing (radians).
func destination(origin models.GeoPoint, bearing, distance float64) models.GeoPoint {
	d := distance / EarthRadiusMeters
	lat1, lng1 := radians(origin.Lat), radians(origin.Lng)
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	lng := math.Mod(degrees(lng2)+540, 360) - 180
	return models.GeoPoint{Lat: degrees(lat2), Lng: lng}
}

func TestEncode_StableAndPrefixShared(t *testing.T) {
	a := Encode(bengaluru)
	assert.Len(t, a, StoragePrecision)
	assert.Equal(t, a, Encode(bengaluru))

	near := Encode(models.GeoPoint{Lat: 12.9001, Lng: 77.5901})
	assert.True(t, strings.HasPrefix(near, a[:5]), "nearby points share a prefix: %s vs %s", a, near)
}

func TestDistance_SymmetricAndZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := models.GeoPoint{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		b := models.GeoPoint{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		c := models.GeoPoint{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}

		assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-6)
		assert.Zero(t, Distance(a, a))
		assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1.0)
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// One degree of latitude on the mean sphere.
	got := Distance(models.GeoPoint{Lat: 0, Lng: 0}, models.GeoPoint{Lat: 1, Lng: 0})
	assert.InDelta(t, EarthRadiusMeters*math.Pi/180, got, 1e-6)
}

func TestBoundingCells_CoversDisc(t *testing.T) {
	centers := []models.GeoPoint{
		bengaluru,
		{Lat: 0, Lng: 0},
		{Lat: -33.87, Lng: 151.21},
		{Lat: 64.14, Lng: -21.94},
		{Lat: 0.5, Lng: 179.9}, // antimeridian
		{Lat: 89.95, Lng: 10},   // pole
		{Lat: -51.7, Lng: -57.85},
	}
	radii := []float64{500, 5000, 20000, 100000, 400000}

	for _, c := range centers {
		for _, r := range radii {
			ranges := BoundingCells(c, r)
			require.NotEmpty(t, ranges)
			assert.LessOrEqual(t, len(ranges), MaxCells)
			for k := 0; k < 36; k++ {
				bearing := float64(k) * 10 * math.Pi / 180
				for _, frac := range []float64{0.25, 0.5, 0.9, 0.999} {
					p := destination(c, bearing, r*frac)
					assert.True(t, covered(ranges, Encode(p)),
						"center %v radius %v: point %v (%s) not covered", c, r, p, Encode(p))
				}
			}
		}
	}
}

func TestBoundingCellsAtPrecision_CoversDisc(t *testing.T) {
	for p := 1; p <= 6; p++ {
		ranges, err := BoundingCellsAtPrecision(bengaluru, 20000, p)
		require.NoError(t, err)
		for k := 0; k < 72; k++ {
			pt := destination(bengaluru, float64(k)*5*math.Pi/180, 19999)
			assert.True(t, covered(ranges, Encode(pt)), "precision %d misses %v", p, pt)
		}
	}
}

func TestBoundingCells_SortedAndDisjoint(t *testing.T) {
	ranges := BoundingCells(bengaluru, 100000)
	for i := 1; i < len(ranges); i++ {
		assert.LessOrEqual(t, ranges[i-1].Max, ranges[i].Min)
	}
}

func TestBoundingCells_FalsePositiveInsideCovering(t *testing.T) {
	// ~150 km away yet inside the 100 km covering; the distance filter must drop it.
	far := models.GeoPoint{Lat: 13.854, Lng: 78.5705}
	assert.InDelta(t, 150000, Distance(bengaluru, far), 100)

	ranges := BoundingCells(bengaluru, 100000)
	assert.True(t, covered(ranges, Encode(far)))
}

func TestBoundingCellsAtPrecision_Errors(t *testing.T) {
	_, err := BoundingCellsAtPrecision(bengaluru, 1000, 0)
	assert.Error(t, err)

	_, err = BoundingCellsAtPrecision(bengaluru, 100000, 8)
	assert.ErrorIs(t, err, ErrTooManyCells)
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	boxes := BoundingBox(models.GeoPoint{Lat: 0, Lng: 179.9}, 50000)
	require.Len(t, boxes, 2)
	assert.Equal(t, 180.0, boxes[0].MaxLng)
	assert.Equal(t, -180.0, boxes[1].MinLng)
}

func TestBoundingBox_Pole(t *testing.T) {
	boxes := BoundingBox(models.GeoPoint{Lat: 89.9, Lng: 0}, 50000)
	require.Len(t, boxes, 1)
	assert.Equal(t, 90.0, boxes[0].MaxLat)
	assert.Equal(t, -180.0, boxes[0].MinLng)
	assert.Equal(t, 180.0, boxes[0].MaxLng)
}
