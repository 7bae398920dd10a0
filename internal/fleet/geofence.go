package fleet

import "math"

// Default operating boundary: home base and a radius in degree space.
// Roughly 50 km at this latitude; intentionally a flat-earth approximation.
const (
	DefaultHomeLat        = 46.7712
	DefaultHomeLng        = 23.5889
	DefaultGeofenceRadius = 0.5
)

// GeofenceMonitor checks positions against a fixed operating-radius boundary
// around home base. A violation is an observability signal only; it never
// changes vehicle state.
type GeofenceMonitor struct {
	homeLat float64
	homeLng float64
	radius  float64
}

func NewGeofenceMonitor(homeLat, homeLng, radiusDegree float64) *GeofenceMonitor {
	return &GeofenceMonitor{homeLat: homeLat, homeLng: homeLng, radius: radiusDegree}
}

func DefaultGeofenceMonitor() *GeofenceMonitor {
	return NewGeofenceMonitor(DefaultHomeLat, DefaultHomeLng, DefaultGeofenceRadius)
}

// Check reports whether the position is inside the operating boundary.
func (g *GeofenceMonitor) Check(lat, lng float64) bool {
	dist := math.Sqrt(math.Pow(lat-g.homeLat, 2) + math.Pow(lng-g.homeLng, 2))
	return dist <= g.radius
}
