package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	result *GeocodeResult
	err    error
}

func (s stubGeocoder) Geocode(_ context.Context, _ string) (*GeocodeResult, error) {
	return s.result, s.err
}

var chattanooga = Location{Lat: 35.0456, Lng: -85.3097}

func TestHaversineZeroDistance(t *testing.T) {
	assert.InDelta(t, 0, Haversine(chattanooga, chattanooga), 0.001)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Chattanooga to Nashville is roughly 112 miles great-circle.
	nashville := Location{Lat: 36.1627, Lng: -86.7816}
	d := Haversine(chattanooga, nashville)
	assert.InDelta(t, 112, d, 5)
}

func TestClassifyBoundaries(t *testing.T) {
	checker := NewAreaChecker(nil, chattanooga, 20, 35, 30)

	tests := []struct {
		name string
		loc  Location
		want Classification
	}{
		{"home base", chattanooga, InArea},
		// ~24 miles north: extended.
		{"extended ring", Location{Lat: chattanooga.Lat + 0.35, Lng: chattanooga.Lng}, ExtendedArea},
		// ~69 miles north: out.
		{"out of area", Location{Lat: chattanooga.Lat + 1.0, Lng: chattanooga.Lng}, OutOfArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checker.Classify(tt.loc, "x")
			assert.Equal(t, tt.want, res.Classification)
		})
	}
}

func TestCheckNoResultsYieldsUnknown(t *testing.T) {
	checker := NewAreaChecker(stubGeocoder{err: ErrNoResults}, chattanooga, 20, 35, 30)

	res, err := checker.Check(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Classification)
}

func TestCheckPartialMatchYieldsUnknown(t *testing.T) {
	checker := NewAreaChecker(stubGeocoder{result: &GeocodeResult{
		Location:         chattanooga,
		FormattedAddress: "Main St (approx)",
		Partial:          true,
	}}, chattanooga, 20, 35, 30)

	res, err := checker.Check(context.Background(), "main st")
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Classification)
	assert.Equal(t, "Main St (approx)", res.FormattedAddress)
}

func TestDriveTimeText(t *testing.T) {
	checker := NewAreaChecker(nil, chattanooga, 20, 35, 30)
	res := checker.Classify(Location{Lat: chattanooga.Lat + 0.2, Lng: chattanooga.Lng}, "x")
	assert.NotEmpty(t, res.DriveTimeText)
	assert.NotEmpty(t, res.DistanceText)
}
