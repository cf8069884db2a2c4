// Package jobs defines the background work of the system: shipment
// position ticks and forecast cache warmup, scheduled via Asynq cron.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/agrivance/agrivance/internal/locations"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskShipmentPositionTick advances the map markers of shipments in
	// transit. It never touches shipment status or inventory.
	TaskShipmentPositionTick = "shipment:position_tick"
	// TaskWeatherWarmup refreshes the forecast cache for every stored
	// location.
	TaskWeatherWarmup = "weather:warmup"
)

// positionStep is the fraction of the remaining distance covered per tick.
const positionStep = 0.1

// ShipmentTracker is the slice of the shipments service the tick needs.
type ShipmentTracker interface {
	TickPositions(ctx context.Context, step float64) (int, error)
}

// ForecastWarmer refreshes one city's cached forecast.
type ForecastWarmer interface {
	Warm(ctx context.Context, city string) error
}

// LocationSource lists the places whose forecasts are kept warm.
type LocationSource interface {
	List(ctx context.Context) ([]locations.Location, error)
}

// NewShipmentPositionTickTask constructs the position tick task.
func NewShipmentPositionTickTask() *asynq.Task {
	return asynq.NewTask(TaskShipmentPositionTick, nil)
}

// NewWeatherWarmupTask constructs the warmup task.
func NewWeatherWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskWeatherWarmup, nil)
}

// HandleShipmentPositionTick returns the handler for position tick tasks.
func HandleShipmentPositionTick(logger *slog.Logger, tracker ShipmentTracker) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		moved, err := tracker.TickPositions(ctx, positionStep)
		if err != nil {
			logger.Error("shipment position tick failed", "error", err)
			return err
		}
		logger.Info("shipment position tick", "moved", moved)
		return nil
	}
}

// HandleWeatherWarmup returns the handler for warmup tasks. A failed city
// is logged and skipped; one broken geocode must not starve the rest.
func HandleWeatherWarmup(logger *slog.Logger, source LocationSource, warmer ForecastWarmer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		locs, err := source.List(ctx)
		if err != nil {
			return err
		}
		for _, loc := range locs {
			if err := warmer.Warm(ctx, loc.Name); err != nil {
				logger.Warn("forecast warmup failed", "error", err, "location", loc.Name)
			}
		}
		return nil
	}
}
