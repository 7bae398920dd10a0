package fleet

// DefaultServiceIntervalKm is the distance a vehicle may accumulate since its
// last service before it is forced into maintenance.
const DefaultServiceIntervalKm = 10000.0

// MaintenanceMonitor flags vehicles whose distance since last service exceeds
// the service interval.
type MaintenanceMonitor struct {
	intervalKm float64
}

func NewMaintenanceMonitor(intervalKm float64) *MaintenanceMonitor {
	return &MaintenanceMonitor{intervalKm: intervalKm}
}

func DefaultMaintenanceMonitor() *MaintenanceMonitor {
	return NewMaintenanceMonitor(DefaultServiceIntervalKm)
}

// Check reports whether the vehicle is due for service.
func (m *MaintenanceMonitor) Check(totalKm, lastServiceKm float64) bool {
	return totalKm-lastServiceKm > m.intervalKm
}
