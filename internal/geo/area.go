package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Classification of an address against the service area.
type Classification string

const (
	InArea       Classification = "IN_AREA"
	ExtendedArea Classification = "EXTENDED_AREA"
	OutOfArea    Classification = "OUT_OF_AREA"
	Unknown      Classification = "UNKNOWN"
)

const earthRadiusMiles = 3958.8

// AreaChecker classifies addresses against the business's home base.
type AreaChecker struct {
	geocoder Geocoder

	Base            Location
	ServiceRadius   float64 // miles
	ExtendedRadius  float64 // miles
	AverageSpeedMPH float64
}

// NewAreaChecker creates an area checker.
func NewAreaChecker(geocoder Geocoder, base Location, serviceRadius, extendedRadius, avgSpeedMPH float64) *AreaChecker {
	return &AreaChecker{
		geocoder:        geocoder,
		Base:            base,
		ServiceRadius:   serviceRadius,
		ExtendedRadius:  extendedRadius,
		AverageSpeedMPH: avgSpeedMPH,
	}
}

// AreaResult is the outcome of a distance check.
type AreaResult struct {
	Classification   Classification
	FormattedAddress string
	Location         Location
	DistanceMiles    float64
	DistanceText     string
	DriveTimeText    string
}

// Check geocodes an address and classifies it. A failed or ambiguous geocode
// yields Unknown rather than an error so callers can prompt for a retry.
func (a *AreaChecker) Check(ctx context.Context, address string) (*AreaResult, error) {
	res, err := a.geocoder.Geocode(ctx, address)
	if errors.Is(err, ErrNoResults) {
		return &AreaResult{Classification: Unknown}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("geo: distance check: %w", err)
	}
	if res.Partial {
		return &AreaResult{Classification: Unknown, FormattedAddress: res.FormattedAddress}, nil
	}

	return a.Classify(res.Location, res.FormattedAddress), nil
}

// Classify classifies an already-resolved location.
func (a *AreaChecker) Classify(loc Location, formattedAddress string) *AreaResult {
	distance := Haversine(a.Base, loc)

	out := &AreaResult{
		FormattedAddress: formattedAddress,
		Location:         loc,
		DistanceMiles:    distance,
		DistanceText:     fmt.Sprintf("%.1f mi", distance),
		DriveTimeText:    a.driveTimeText(distance),
	}
	switch {
	case distance <= a.ServiceRadius:
		out.Classification = InArea
	case distance <= a.ExtendedRadius:
		out.Classification = ExtendedArea
	default:
		out.Classification = OutOfArea
	}
	return out
}

func (a *AreaChecker) driveTimeText(distanceMiles float64) string {
	speed := a.AverageSpeedMPH
	if speed <= 0 {
		speed = 30
	}
	mins := int(math.Round(distanceMiles / speed * 60))
	if mins < 1 {
		mins = 1
	}
	d := time.Duration(mins) * time.Minute
	if d >= time.Hour {
		return fmt.Sprintf("%d hr %d min", mins/60, mins%60)
	}
	return fmt.Sprintf("%d min", mins)
}

// Haversine returns the great-circle distance between two points in miles.
func Haversine(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
