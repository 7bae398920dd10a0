package fleet

import "errors"

// Failure taxonomy shared by the services and the telemetry tick. Handlers
// map these to HTTP statuses with errors.Is.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAlreadyAssigned     = errors.New("vehicle already assigned to another driver")
	ErrDriverHasNoVehicle  = errors.New("driver has no assigned vehicle")
	ErrDriverHasTrips      = errors.New("driver has recorded trips")
	ErrConcurrencyConflict = errors.New("record was modified concurrently")
)
