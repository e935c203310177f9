// Package collector turns Aqualink device states into temperature readings.
package collector

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"pool-logger/internal/aqualink"
	"pool-logger/internal/types"
)

// VendorClient is the slice of the Aqualink client the collector needs.
type VendorClient interface {
	Login(ctx context.Context) (aqualink.Session, error)
	Systems(ctx context.Context, s aqualink.Session) ([]aqualink.System, error)
	DeviceStates(ctx context.Context, s aqualink.Session, serial string) (map[string]string, error)
}

type Collector struct {
	client VendorClient
	logger *slog.Logger
}

func New(client VendorClient, logger *slog.Logger) *Collector {
	return &Collector{client: client, logger: logger}
}

// Fetch performs one poll of the vendor cloud. A whole-service failure
// (login or system listing) yields an empty batch, never an error, so the
// caller proceeds to its next cycle. Per-system failures skip that system
// only.
func (c *Collector) Fetch(ctx context.Context) []types.Reading {
	session, err := c.client.Login(ctx)
	if err != nil {
		c.logger.Error("aqualink login failed", "error", err)
		return nil
	}

	systems, err := c.client.Systems(ctx, session)
	if err != nil {
		c.logger.Error("listing aqualink systems failed", "error", err)
		return nil
	}

	var readings []types.Reading
	for _, system := range systems {
		states, err := c.client.DeviceStates(ctx, session, system.SerialNumber)
		if err != nil {
			c.logger.Error("reading device states failed",
				"system_id", system.SerialNumber,
				"error", err,
			)
			continue
		}

		reading := types.Reading{
			SystemID:   system.SerialNumber,
			PoolTemp:   parseTemperature(states["pool_temp"]),
			AirTemp:    parseTemperature(states["air_temp"]),
			ObservedAt: time.Now().UTC(),
		}
		if !reading.HasTemperature() {
			c.logger.Debug("system reported no usable temperatures",
				"system_id", system.SerialNumber,
			)
			continue
		}
		readings = append(readings, reading)
	}
	return readings
}

// parseTemperature converts a raw device state to a temperature. Absent,
// empty, and unparsable values all map to nil rather than a zero reading.
func parseTemperature(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
