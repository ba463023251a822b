package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	vancouver := Location{Latitude: 49.164532, Longitude: -123.177201}
	nearby := Location{Latitude: 49.164553, Longitude: -123.175012}
	winnipeg := Location{Latitude: 49.878418, Longitude: -97.130854}

	assert.Equal(t, 0.0, DistanceKm(vancouver, vancouver))
	assert.InDelta(t, 0.16, DistanceKm(vancouver, nearby), 0.01)
	assert.InDelta(t, 1872, DistanceKm(vancouver, winnipeg), 5)
	assert.InDelta(t, DistanceKm(vancouver, winnipeg), DistanceKm(winnipeg, vancouver), 1e-9)

	// one degree of longitude on the equator
	assert.InDelta(t, 111.19, DistanceKm(Location{}, Location{Longitude: 1}), 0.01)
}
