package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Snapshot is the finalized output of one sensor update cycle.
type Snapshot struct {
	Timestamp time.Time
	Sensor    string
	Status    uint8
	Readings  []Reading
}

// Reading is one finalized variable value. Valid is false when the cycle
// produced no data for the variable; the value is then the sensor layer's
// sentinel and is persisted as NULL.
type Reading struct {
	Variable string
	Unit     string
	Value    float64
	Valid    bool
}
