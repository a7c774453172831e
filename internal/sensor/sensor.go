// Package sensor implements the lifecycle engine shared by all instrument
// drivers: power sequencing, datasheet timing gates, multi-sample averaging
// and observer notification. Device specifics live behind the Driver
// interface in internal/devices.
package sensor

import (
	"time"

	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/logger"
	"github.com/benbjohnson/clock"
)

// Spec holds the device-class constants for one instrument, taken from its
// datasheet. Immutable after construction.
type Spec struct {
	// Name identifies the sensor in logs and telemetry.
	Name string

	// NumVars is the number of result variables the sensor reports,
	// at most MaxVars.
	NumVars int

	// WarmUp is the delay between power application and the device being
	// ready to accept commands.
	WarmUp time.Duration

	// Stabilization is the delay between wake and the device producing
	// trustworthy readings.
	Stabilization time.Duration

	// Measurement is the delay between triggering a single measurement and
	// its result being ready.
	Measurement time.Duration

	// MeasurementsToAverage is how many measurement iterations one update
	// cycle runs. Zero means one; values above MaxToAverage are clamped.
	MeasurementsToAverage int

	// StaysPowered keeps the sensor powered between update cycles. Used for
	// devices that lose calibration or state on power loss, or that share a
	// supply with the controller.
	StaysPowered bool
}

// Sensor drives one instrument through the full measure-and-average
// lifecycle. Instances are not safe for concurrent use; the station loop
// updates sensors strictly one at a time.
type Sensor struct {
	spec  Spec
	drv   Driver
	clock clock.Clock

	status      Status
	poweredAt   time.Time
	activatedAt time.Time
	requestedAt time.Time

	warmUp      gate
	stability   gate
	measurement gate

	acc    accumulator
	vars   registry
	values [MaxVars]float64
}

// Option configures a Sensor at construction.
type Option func(*Sensor)

// WithClock substitutes the time source. Tests use a mock clock to exercise
// the timing gates without real delays.
func WithClock(c clock.Clock) Option {
	return func(s *Sensor) {
		s.clock = c
	}
}

// New validates the spec and wires the driver to a fresh lifecycle engine.
func New(spec Spec, drv Driver, opts ...Option) (*Sensor, error) {
	errFactory := errors.New()

	if spec.Name == "" {
		return nil, errFactory.WithMessage(ErrInvalidSpec, "sensor name required")
	}
	if spec.NumVars < 1 || spec.NumVars > MaxVars {
		return nil, errFactory.WithData(ErrInvalidSpec, spec.NumVars)
	}
	if drv == nil {
		return nil, errFactory.WithMessage(ErrInvalidSpec, "driver required")
	}
	if spec.MeasurementsToAverage < 1 {
		spec.MeasurementsToAverage = 1
	}
	if spec.MeasurementsToAverage > MaxToAverage {
		spec.MeasurementsToAverage = MaxToAverage
	}

	s := &Sensor{
		spec:  spec,
		drv:   drv,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.warmUp = gate{clock: s.clock, duration: spec.WarmUp}
	s.stability = gate{clock: s.clock, duration: spec.Stabilization}
	s.measurement = gate{clock: s.clock, duration: spec.Measurement}

	for i := range s.values {
		s.values[i] = NoValue
	}

	return s, nil
}

// Name returns the sensor's name from its spec.
func (s *Sensor) Name() string {
	return s.spec.Name
}

// Spec returns the device-class constants.
func (s *Sensor) Spec() Spec {
	return s.spec
}

// Status returns the current lifecycle status code.
func (s *Sensor) Status() Status {
	return s.status
}

// ClearError clears the sticky error bit. Called by the application once the
// degraded cycle has been observed and reported.
func (s *Sensor) ClearError() {
	s.status.clearError()
}

// RegisterVariable associates an observer with a result slot. Only one
// observer can be held per slot.
func (s *Sensor) RegisterVariable(slot int, obs Observer) error {
	return s.vars.register(slot, obs)
}

// Values returns a copy of the finalized result array, one entry per
// reported variable. Slots that produced no data hold NoValue.
func (s *Sensor) Values() []float64 {
	out := make([]float64, s.spec.NumVars)
	copy(out, s.values[:s.spec.NumVars])

	return out
}

// Value returns the finalized value for one slot, or NoValue if the slot is
// out of range.
func (s *Sensor) Value(slot int) float64 {
	if slot < 0 || slot >= s.spec.NumVars {
		return NoValue
	}

	return s.values[slot]
}

// RecordIfValid implements Recorder for the driver's CollectResults hook.
func (s *Sensor) RecordIfValid(slot int, value float64) bool {
	return s.acc.recordIfValid(slot, value)
}

// Setup performs the sensor's one-time preparation. The sensor is powered
// for the duration of setup and powered back down afterwards unless it was
// already on or stays powered. Setup may be retried after a failure.
func (s *Sensor) Setup() error {
	wasPowered := s.status.PoweredOn()
	if !wasPowered {
		s.powerUp()
		s.warmUp.wait(s.poweredAt)
	}

	err := s.drv.Setup()
	if err != nil {
		s.status.markError()
	} else {
		s.status.markSetup()
	}

	if !wasPowered && !s.spec.StaysPowered {
		s.powerDown()
	}

	if err != nil {
		return errors.New().Wrap(ErrSetupFailed, err).WithData(s.spec.Name)
	}
	logger.Debug().Str("sensor", s.spec.Name).Msg("Sensor set up")

	return nil
}

// Update runs one full measurement cycle: power, warm-up, wake,
// stabilization, the averaging loop, finalization, notification and
// (policy permitting) power-down. All timing waits happen inside this call.
//
// A failing driver hook sets the sticky error bit and leaves the matching
// "succeeded" status bit unset, but the cycle always runs to finalization
// and notification: partial failure degrades the results, it does not abort
// them. Only calling Update on a sensor that was never set up is an error.
func (s *Sensor) Update() error {
	if !s.status.SetupComplete() {
		return errors.New().WithData(ErrNotSetup, s.spec.Name)
	}

	wasPowered := s.status.PoweredOn()
	if !wasPowered {
		s.powerUp()
	}
	s.warmUp.wait(s.poweredAt)

	s.wake()
	s.stability.wait(s.activatedAt)

	s.acc.clear()
	for i := 0; i < s.spec.MeasurementsToAverage; i++ {
		s.startMeasurement()
		if s.requestedAt.IsZero() {
			// Request failed; nothing to collect this iteration.
			continue
		}
		s.measurement.wait(s.requestedAt)
		s.collectResults()
	}

	s.acc.finalize(s.values[:s.spec.NumVars])
	s.vars.notify(s.values[:s.spec.NumVars])

	if !wasPowered && !s.spec.StaysPowered {
		s.sleep()
		s.powerDown()
	}

	logger.Debug().
		Str("sensor", s.spec.Name).
		Str("status", s.status.String()).
		Floats64("values", s.Values()).
		Msg("Update cycle complete")

	return nil
}

// PowerDown forces the sensor off regardless of policy. Used during station
// shutdown.
func (s *Sensor) PowerDown() {
	if !s.status.PoweredOn() {
		return
	}
	s.sleep()
	s.powerDown()
}

func (s *Sensor) powerUp() {
	s.status.markPowerAttempt()
	s.drv.PowerUp()
	s.poweredAt = s.clock.Now()
	s.status.markPowerSuccess()
}

func (s *Sensor) powerDown() {
	s.drv.PowerDown()
	s.poweredAt = time.Time{}
	s.status.clearPower()
}

func (s *Sensor) wake() {
	s.status.markWakeAttempt()
	if err := s.drv.Wake(); err != nil {
		s.status.markError()
		logger.Warn().
			Str("sensor", s.spec.Name).
			Err(err).
			Msg("Sensor wake failed")

		return
	}

	s.activatedAt = s.clock.Now()
	s.status.markWakeSuccess()
}

func (s *Sensor) sleep() {
	if err := s.drv.Sleep(); err != nil {
		s.status.markError()
		logger.Warn().
			Str("sensor", s.spec.Name).
			Err(err).
			Msg("Sensor sleep failed")

		return
	}

	s.activatedAt = time.Time{}
	s.status.clearWake()
}

func (s *Sensor) startMeasurement() {
	s.status.markMeasureRequest()
	if err := s.drv.StartMeasurement(); err != nil {
		s.status.markError()
		s.requestedAt = time.Time{}
		logger.Warn().
			Str("sensor", s.spec.Name).
			Err(err).
			Msg("Measurement request failed")

		return
	}

	s.requestedAt = s.clock.Now()
	s.status.markMeasureSuccess()
}

func (s *Sensor) collectResults() {
	if err := s.drv.CollectResults(s); err != nil {
		s.status.markError()
		logger.Warn().
			Str("sensor", s.spec.Name).
			Err(err).
			Msg("Result collection failed")
	}

	s.requestedAt = time.Time{}
	s.status.clearMeasurement()
}
