package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigabase/geobase/internal/errors"
)

const olkhonRing = `{"type":"Polygon","coordinates":[[[106.9,53.0],[107.4,53.0],[107.4,53.3],[106.9,53.3],[106.9,53.0]]]}`

func TestLatLonValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   LatLon
		wantErr bool
	}{
		{"valid", LatLon{Lat: 51.6, Lon: 104.3}, false},
		{"lat too high", LatLon{Lat: 91, Lon: 0}, true},
		{"lat too low", LatLon{Lat: -90.5, Lon: 0}, true},
		{"lon too high", LatLon{Lat: 0, Lon: 180.1}, true},
		{"boundary", LatLon{Lat: 90, Lon: -180}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePolygon(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"closed ring", olkhonRing, false},
		{"not a polygon", `{"type":"Point","coordinates":[104.3,51.6]}`, true},
		{"ring too short", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[0,0]]]}`, true},
		{"ring not closed", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`, true},
		{"garbage", `{"type":"Polygon","coordinates":"nope"}`, true},
		{"empty", `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolygon(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPoint(t *testing.T) {
	assert.True(t, IsPoint(json.RawMessage(`{"type":"Point","coordinates":[104.3,51.6]}`)))
	assert.False(t, IsPoint(json.RawMessage(olkhonRing)))
	assert.False(t, IsPoint(json.RawMessage(`not json`)))
}

func TestCentroid(t *testing.T) {
	c, err := Centroid(json.RawMessage(olkhonRing))
	require.NoError(t, err)
	assert.InDelta(t, 53.15, c.Lat, 0.01)
	assert.InDelta(t, 107.15, c.Lon, 0.01)

	p, err := Centroid(json.RawMessage(`{"type":"Point","coordinates":[104.3,51.6]}`))
	require.NoError(t, err)
	assert.InDelta(t, 51.6, p.Lat, 1e-9)
	assert.InDelta(t, 104.3, p.Lon, 1e-9)
}
