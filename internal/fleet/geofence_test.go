package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeofenceCheck(t *testing.T) {
	monitor := DefaultGeofenceMonitor()

	tests := []struct {
		name     string
		lat      float64
		lng      float64
		inBounds bool
	}{
		{"at home base", DefaultHomeLat, DefaultHomeLng, true},
		{"just inside boundary", DefaultHomeLat + 0.49, DefaultHomeLng, true},
		{"exactly on boundary", DefaultHomeLat + 0.5, DefaultHomeLng, true},
		{"outside on latitude", DefaultHomeLat + 0.51, DefaultHomeLng, false},
		{"outside on diagonal", DefaultHomeLat + 0.4, DefaultHomeLng + 0.4, false},
		{"far away", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inBounds, monitor.Check(tt.lat, tt.lng))
		})
	}
}

func TestGeofenceCustomRadius(t *testing.T) {
	monitor := NewGeofenceMonitor(0, 0, 1.0)

	assert.True(t, monitor.Check(0.7, 0.7))
	assert.False(t, monitor.Check(0.8, 0.8))
}
