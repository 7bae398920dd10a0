package cache

import "time"

// CacheConfig holds TTL values per data type. Position data goes stale
// within a tick or two, so the vehicle TTL is short.
type CacheConfig struct {
	VehicleDataTTL time.Duration `json:"vehicleDataTTL"`
	VehicleListTTL time.Duration `json:"vehicleListTTL"`
	GenericTTL     time.Duration `json:"genericTTL"`
	KeyPrefix      string        `json:"keyPrefix"`
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		VehicleDataTTL: 10 * time.Second,
		VehicleListTTL: 30 * time.Second,
		GenericTTL:     2 * time.Minute,
		KeyPrefix:      "smartfleet:",
	}
}

// GetTTLForDataType returns the TTL for a data type.
func (c CacheConfig) GetTTLForDataType(dataType string) time.Duration {
	switch dataType {
	case "vehicle":
		return c.VehicleDataTTL
	case "vehicle_list":
		return c.VehicleListTTL
	default:
		return c.GenericTTL
	}
}
