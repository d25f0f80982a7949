// Package geocell maps coordinates to sortable geohash keys and computes the
// key ranges that cover a disc, so proximity can be answered with range scans.
package geocell

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"bloodsync/models"

	"github.com/mmcloughlin/geohash"
)

const (
	// StoragePrecision is the geohash length stored on records (~1.2 m cells).
	StoragePrecision = 10
	// MaxCells bounds the number of range scans BoundingCells asks for.
	MaxCells = 16
	// EarthRadiusMeters is the mean radius used by Distance and BoundingBox.
	EarthRadiusMeters = 6371008.8

	maxPrecision       = 12
	maxEnumeratedCells = 1 << 12
	// boxPadDegrees widens boxes so points on a cell border are never dropped.
	boxPadDegrees = 1e-9
	// rangeUpperSentinel sorts after every base32 geohash character.
	rangeUpperSentinel = "~"
)

var ErrTooManyCells = errors.New("geocell: covering exceeds cell budget")

// Range is a half-open key interval [Min, Max).
type Range struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

func (r Range) Contains(key string) bool {
	return key >= r.Min && key < r.Max
}

// Everything covers every key.
var Everything = Range{Min: "", Max: rangeUpperSentinel}

// Encode returns the storage geohash of p.
func Encode(p models.GeoPoint) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, StoragePrecision)
}

// Distance is the haversine great-circle distance in metres.
func Distance(a, b models.GeoPoint) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Box is a latitude/longitude rectangle in degrees.
type Box struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

// BoundingBox returns the rectangles enclosing the disc of radiusMeters around
// center. A disc reaching a pole spans every longitude; one crossing the
// antimeridian is split in two.
func BoundingBox(center models.GeoPoint, radiusMeters float64) []Box {
	if radiusMeters < 0 {
		radiusMeters = 0
	}
	d := radiusMeters / EarthRadiusMeters
	lat, lng := radians(center.Lat), radians(center.Lng)
	minLat, maxLat := lat-d, lat+d

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return []Box{{
			MinLat: math.Max(-90, degrees(minLat)),
			MaxLat: math.Min(90, degrees(maxLat)),
			MinLng: -180,
			MaxLng: 180,
		}}
	}

	dLng := math.Asin(math.Sin(d) / math.Cos(lat))
	box := Box{
		MinLat: degrees(minLat),
		MaxLat: degrees(maxLat),
		MinLng: degrees(lng - dLng),
		MaxLng: degrees(lng + dLng),
	}
	switch {
	case box.MaxLng-box.MinLng >= 360:
		box.MinLng, box.MaxLng = -180, 180
		return []Box{box}
	case box.MinLng < -180:
		west := box
		west.MinLng, west.MaxLng = box.MinLng+360, 180
		box.MinLng = -180
		return []Box{box, west}
	case box.MaxLng > 180:
		east := box
		east.MinLng, east.MaxLng = -180, box.MaxLng-360
		box.MaxLng = 180
		return []Box{box, east}
	}
	return []Box{box}
}

// BoundingCells returns sorted, disjoint key ranges covering every point
// within radiusMeters of center. It uses the finest precision whose covering
// fits in MaxCells ranges and falls back to Everything.
func BoundingCells(center models.GeoPoint, radiusMeters float64) []Range {
	boxes := BoundingBox(center, radiusMeters)
	for p := StoragePrecision; p >= 1; p-- {
		if countCells(boxes, p) > MaxCells {
			continue
		}
		ranges, err := cover(boxes, p)
		if err == nil {
			return ranges
		}
	}
	return []Range{Everything}
}

// BoundingCellsAtPrecision returns the covering made of cells of the given
// geohash length.
func BoundingCellsAtPrecision(center models.GeoPoint, radiusMeters float64, precision int) ([]Range, error) {
	if precision < 1 || precision > maxPrecision {
		return nil, fmt.Errorf("geocell: precision %d out of range [1, %d]", precision, maxPrecision)
	}
	return cover(BoundingBox(center, radiusMeters), precision)
}

// cellGrid returns the number of latitude/longitude divisions at precision p.
// Geohash interleaves bits starting with longitude.
func cellGrid(p int) (rows, cols int) {
	bits := 5 * p
	latBits := bits / 2
	lngBits := bits - latBits
	return 1 << latBits, 1 << lngBits
}

type span struct{ i0, i1, j0, j1 int }

func boxSpan(b Box, rows, cols int) span {
	h := 180 / float64(rows)
	w := 360 / float64(cols)
	return span{
		i0: clamp(int(math.Floor((b.MinLat-boxPadDegrees+90)/h)), 0, rows-1),
		i1: clamp(int(math.Floor((b.MaxLat+boxPadDegrees+90)/h)), 0, rows-1),
		j0: clamp(int(math.Floor((b.MinLng-boxPadDegrees+180)/w)), 0, cols-1),
		j1: clamp(int(math.Floor((b.MaxLng+boxPadDegrees+180)/w)), 0, cols-1),
	}
}

func countCells(boxes []Box, p int) int {
	rows, cols := cellGrid(p)
	total := 0
	for _, b := range boxes {
		s := boxSpan(b, rows, cols)
		total += (s.i1 - s.i0 + 1) * (s.j1 - s.j0 + 1)
	}
	return total
}

func cover(boxes []Box, p int) ([]Range, error) {
	if n := countCells(boxes, p); n > maxEnumeratedCells {
		return nil, fmt.Errorf("%w: %d cells at precision %d", ErrTooManyCells, n, p)
	}

	rows, cols := cellGrid(p)
	h := 180 / float64(rows)
	w := 360 / float64(cols)

	seen := make(map[string]struct{})
	for _, b := range boxes {
		s := boxSpan(b, rows, cols)
		for i := s.i0; i <= s.i1; i++ {
			for j := s.j0; j <= s.j1; j++ {
				lat := -90 + (float64(i)+0.5)*h
				lng := -180 + (float64(j)+0.5)*w
				seen[geohash.EncodeWithPrecision(lat, lng, uint(p))] = struct{}{}
			}
		}
	}

	ranges := make([]Range, 0, len(seen))
	for prefix := range seen {
		ranges = append(ranges, Range{Min: prefix, Max: prefix + rangeUpperSentinel})
	}
	sort.Slice(ranges, func(a, b int) bool { return ranges[a].Min < ranges[b].Min })
	return ranges, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
