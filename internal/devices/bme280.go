package devices

import (
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/logger"
	"codeberg.org/varden/envsensord/internal/sensor"
)

// Result slots and datasheet constants for the Bosch BME280 environmental
// chip. Warm-up is ~2ms per the datasheet but the chip occasionally needs
// longer after a cold supply; 100ms is the conservative field value. The
// slowest conversion (humidity, max oversampling) completes within a second.
const (
	BME280NumVars = 4

	BME280TempSlot     = 0
	BME280HumiditySlot = 1
	BME280PressureSlot = 2
	BME280AltitudeSlot = 3

	bme280WarmUp      = 100 * time.Millisecond
	bme280Measurement = time.Second

	DefaultBME280Addr = 0x76

	// Standard-atmosphere constants for the pressure-to-altitude estimate.
	seaLevelPressureHPa = 1013.25
	altitudeScaleM      = 44330.0
	altitudeExponent    = 0.1903

	pascalsPerHectopascal = 100.0
)

// BME280 drives a Bosch BME280 pressure/humidity/temperature chip over I2C
// via periph.io. The chip sits on the controller's always-powered I2C rail,
// so the power hooks are bookkeeping only.
type BME280 struct {
	sensor.BaseDriver

	busName string
	addr    uint16

	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// NewBME280 creates a driver for the chip at addr on the named I2C bus. An
// empty bus name selects the first available bus.
func NewBME280(busName string, addr uint16) *BME280 {
	if addr == 0 {
		addr = DefaultBME280Addr
	}

	return &BME280{
		busName: busName,
		addr:    addr,
	}
}

// BME280Spec returns the sensor spec for the chip.
func BME280Spec(measurementsToAverage int) sensor.Spec {
	return sensor.Spec{
		Name:                  "BoschBME280",
		NumVars:               BME280NumVars,
		WarmUp:                bme280WarmUp,
		Measurement:           bme280Measurement,
		MeasurementsToAverage: measurementsToAverage,
		StaysPowered:          true,
	}
}

// Setup initializes the host drivers, opens the bus and probes the chip.
func (b *BME280) Setup() error {
	errFactory := errors.New()

	if _, err := host.Init(); err != nil {
		return errFactory.Wrap(errors.ErrInitFailed, err)
	}

	bus, err := i2creg.Open(b.busName)
	if err != nil {
		return errFactory.Wrap(ErrConnectFailed, err).WithData(b.busName)
	}

	dev, err := bmxx80.NewI2C(bus, b.addr, &bmxx80.DefaultOpts)
	if err != nil {
		if cerr := bus.Close(); cerr != nil {
			logger.Debug().Err(cerr).Msg("Closing i2c bus after failed probe")
		}
		return errFactory.Wrap(ErrConnectFailed, err).WithData(b.addr)
	}

	b.bus = bus
	b.dev = dev

	return nil
}

// CollectResults senses once and records temperature, humidity, pressure and
// the standard-atmosphere altitude estimate derived from pressure.
func (b *BME280) CollectResults(rec sensor.Recorder) error {
	temp := float64(sensor.NoValue)
	humidity := float64(sensor.NoValue)
	pressure := float64(sensor.NoValue)
	altitude := float64(sensor.NoValue)
	defer func() {
		rec.RecordIfValid(BME280TempSlot, temp)
		rec.RecordIfValid(BME280HumiditySlot, humidity)
		rec.RecordIfValid(BME280PressureSlot, pressure)
		rec.RecordIfValid(BME280AltitudeSlot, altitude)
	}()

	if b.dev == nil {
		return errors.New().New(ErrNotInitialized)
	}

	var env physic.Env
	if err := b.dev.Sense(&env); err != nil {
		return errors.New().Wrap(ErrCommandFailed, err)
	}

	temp = env.Temperature.Celsius()
	humidity = float64(env.Humidity) / float64(physic.PercentRH)
	pressure = float64(env.Pressure) / float64(physic.Pascal) / pascalsPerHectopascal
	altitude = altitudeFromPressure(pressure)

	return nil
}

// Close halts the chip and releases the bus at station shutdown.
func (b *BME280) Close() error {
	errFactory := errors.New()

	if b.dev != nil {
		if err := b.dev.Halt(); err != nil {
			logger.Debug().Err(err).Msg("Halting BME280")
		}
		b.dev = nil
	}

	if b.bus != nil {
		err := b.bus.Close()
		b.bus = nil
		if err != nil {
			return errFactory.Wrap(errors.ErrShutdownFailed, err)
		}
	}

	return nil
}

// altitudeFromPressure converts a station pressure in hPa to meters above
// sea level assuming the standard atmosphere.
func altitudeFromPressure(hPa float64) float64 {
	if hPa <= 0 {
		return sensor.NoValue
	}

	return altitudeScaleM * (1.0 - math.Pow(hPa/seaLevelPressureHPa, altitudeExponent))
}
