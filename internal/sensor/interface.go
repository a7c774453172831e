package sensor

// Driver is the device-specific half of a sensor. The lifecycle engine
// sequences power, timing and averaging; the driver talks to the hardware at
// the extension points below. Embed BaseDriver to pick up no-op defaults for
// everything except CollectResults.
type Driver interface {
	// Setup performs any one-time preparation the hardware needs before it
	// can take readings. The sensor is powered during setup.
	Setup() error

	// PowerUp and PowerDown control sensor power. For most devices this
	// toggles a supply pin or relay; the default is bookkeeping only.
	PowerUp()
	PowerDown()

	// Wake brings the sensor from powered-but-idle into a measuring-capable
	// state. The warm-up window has already elapsed when Wake is called.
	Wake() error

	// Sleep is the counterpart of Wake. It must not power the sensor down.
	Sleep() error

	// StartMeasurement triggers a single measurement. The stabilization
	// window has already elapsed when StartMeasurement is called.
	StartMeasurement() error

	// CollectResults reads back the result of a single measurement and must
	// call rec.RecordIfValid for each of the device's variables, passing
	// NoValue for anything it could not determine. The measurement window
	// has already elapsed when CollectResults is called.
	CollectResults(rec Recorder) error
}

// Recorder accepts individual measurement results during one iteration of
// the averaging loop.
type Recorder interface {
	RecordIfValid(slot int, value float64) bool
}

// Observer receives the finalized value for one result slot at the end of
// every update cycle. Observers are owned by the application, not by the
// sensor.
type Observer interface {
	Update(value float64)
}

// BaseDriver provides the bookkeeping-only defaults for drivers that do not
// need a given lifecycle hook. CollectResults is deliberately absent: every
// driver must provide its own.
type BaseDriver struct{}

func (BaseDriver) Setup() error            { return nil }
func (BaseDriver) PowerUp()                {}
func (BaseDriver) PowerDown()              {}
func (BaseDriver) Wake() error             { return nil }
func (BaseDriver) Sleep() error            { return nil }
func (BaseDriver) StartMeasurement() error { return nil }
