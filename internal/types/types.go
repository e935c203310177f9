package types

import "time"

// Reading is one temperature observation from a single Aqualink system.
// At least one of PoolTemp / AirTemp is set; readings with neither are
// dropped by the collector before they reach the writer.
type Reading struct {
	SystemID   string    `json:"system_id"`
	PoolTemp   *float64  `json:"pool_temp,omitempty"`
	AirTemp    *float64  `json:"air_temp,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// HasTemperature reports whether the reading carries at least one value.
func (r Reading) HasTemperature() bool {
	return r.PoolTemp != nil || r.AirTemp != nil
}
