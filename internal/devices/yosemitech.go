package devices

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/goburrow/modbus"

	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/logger"
	"codeberg.org/varden/envsensord/internal/sensor"
)

// YosemitechModel selects the probe variant. The variants share one modbus
// dialect but differ in datasheet timings and unit handling.
type YosemitechModel string

const (
	Y511 YosemitechModel = "Y511" // turbidity, wipered
	Y514 YosemitechModel = "Y514" // chlorophyll, wipered
	Y520 YosemitechModel = "Y520" // conductivity

	// Modbus register map shared by the Yosemitech probes.
	regMeasurementCtl uint16 = 0x2500
	regBrushCtl       uint16 = 0x2F00
	regData           uint16 = 0x2600

	cmdStartMeasurement uint16 = 0x001F
	cmdStopMeasurement  uint16 = 0x0000
	cmdActivateBrush    uint16 = 0x0001

	// The probes occasionally ignore a command right after power-up.
	yosemitechCmdRetries = 5

	wordsPerFloat = 2

	microsiemensPerMillisiemens = 1000.0
)

// modbusClient is the slice of the modbus API this driver needs; satisfied
// by modbus.Client and by test fakes.
type modbusClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteSingleRegister(address, value uint16) ([]byte, error)
}

// Yosemitech drives a Yosemitech water-quality probe over Modbus RTU. Wake
// starts the probe's internal measurement loop (and wiper brush where
// fitted); individual readings are then just register reads.
type Yosemitech struct {
	sensor.BaseDriver

	model   YosemitechModel
	port    string
	baud    int
	address byte
	numVars int

	handler *modbus.RTUClientHandler
	client  modbusClient

	measuring bool
}

// NewYosemitech creates a driver for the probe at the given serial port and
// modbus address.
func NewYosemitech(model YosemitechModel, port string, baud int, address byte) (*Yosemitech, error) {
	errFactory := errors.New()

	if port == "" {
		return nil, errFactory.New(ErrInvalidPort)
	}
	if address == 0 {
		return nil, errFactory.WithData(ErrInvalidAddress, address)
	}
	if baud <= 0 {
		baud = 9600
	}

	numVars := 2
	if model == Y520 {
		// Conductivity probes also report a third (salinity) value.
		numVars = 3
	}

	return &Yosemitech{
		model:   model,
		port:    port,
		baud:    baud,
		address: address,
		numVars: numVars,
	}, nil
}

// Spec returns the sensor spec for this probe model.
func (y *Yosemitech) Spec(measurementsToAverage int) sensor.Spec {
	spec := sensor.Spec{
		Name:                  "Yosemitech" + string(y.model),
		NumVars:               y.numVars,
		WarmUp:                500 * time.Millisecond,
		Stabilization:         22 * time.Second,
		Measurement:           1700 * time.Millisecond,
		MeasurementsToAverage: measurementsToAverage,
	}

	if y.model == Y520 {
		spec.Stabilization = 10 * time.Second
	}

	return spec
}

// Setup opens the serial connection. The probe must be powered.
func (y *Yosemitech) Setup() error {
	handler := modbus.NewRTUClientHandler(y.port)
	handler.BaudRate = y.baud
	handler.DataBits = 8
	handler.Parity = "N"
	handler.StopBits = 1
	handler.SlaveId = y.address
	handler.Timeout = time.Second

	if err := handler.Connect(); err != nil {
		return errors.New().Wrap(ErrConnectFailed, err).WithData(y.port)
	}

	y.handler = handler
	y.client = modbus.NewClient(handler)

	return nil
}

// Wake starts the probe's measurement loop, retrying a few times, and runs
// the wiper brush on models that carry one.
func (y *Yosemitech) Wake() error {
	if y.client == nil {
		return errors.New().New(ErrNotInitialized)
	}

	var err error
	for try := 0; try < yosemitechCmdRetries; try++ {
		if _, err = y.client.WriteSingleRegister(regMeasurementCtl, cmdStartMeasurement); err == nil {
			break
		}
	}
	if err != nil {
		return errors.New().Wrap(ErrCommandFailed, err)
	}
	y.measuring = true

	if y.hasBrush() {
		// Newer probes do not wipe on their own after power-up.
		if _, err := y.client.WriteSingleRegister(regBrushCtl, cmdActivateBrush); err != nil {
			logger.Warn().
				Str("model", string(y.model)).
				Err(err).
				Msg("Wiper brush activation failed")
		}
	}

	return nil
}

// Sleep stops the probe's measurement loop. Not measuring is not an error.
func (y *Yosemitech) Sleep() error {
	if y.client == nil || !y.measuring {
		return nil
	}

	var err error
	for try := 0; try < yosemitechCmdRetries; try++ {
		if _, err = y.client.WriteSingleRegister(regMeasurementCtl, cmdStopMeasurement); err == nil {
			y.measuring = false
			return nil
		}
	}

	return errors.New().Wrap(ErrCommandFailed, err)
}

// CollectResults reads the probe's value registers: consecutive IEEE-754
// floats, primary parameter first, temperature second, optional third value
// last. Unreadable values become the sentinel; the probe's protocol does not
// distinguish "no signal" from "bad response" and neither do we.
func (y *Yosemitech) CollectResults(rec sensor.Recorder) error {
	values := make([]float64, y.numVars)
	for i := range values {
		values[i] = sensor.NoValue
	}
	// Every slot gets a record call even on failure so averaging sees a
	// complete (if empty) iteration.
	defer func() {
		for slot, v := range values {
			rec.RecordIfValid(slot, v)
		}
	}()

	if y.client == nil {
		return errors.New().New(ErrNotInitialized)
	}

	quantity := uint16(y.numVars * wordsPerFloat)
	raw, err := y.client.ReadHoldingRegisters(regData, quantity)
	if err != nil {
		return errors.New().Wrap(ErrCommandFailed, err)
	}
	if len(raw) < int(quantity)*2 {
		return errors.New().WithData(ErrShortResponse, len(raw))
	}

	for i := range values {
		v := float64(decodeFloat32(raw[i*4 : i*4+4]))
		if math.IsNaN(v) {
			v = sensor.NoValue
		}
		// Y520 reports mS/cm; downstream wants µS/cm.
		if y.model == Y520 && i == 0 && v != sensor.NoValue {
			v *= microsiemensPerMillisiemens
		}
		values[i] = v
	}

	return nil
}

// PowerDown resets the measuring flag. The serial port belongs to the
// controller and stays open across power cycles; the station power relay
// does the actual supply switching.
func (y *Yosemitech) PowerDown() {
	y.measuring = false
}

// Close releases the serial port at station shutdown.
func (y *Yosemitech) Close() error {
	if y.handler == nil {
		return nil
	}

	err := y.handler.Close()
	y.handler = nil
	y.client = nil
	y.measuring = false
	if err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}

func (y *Yosemitech) hasBrush() bool {
	return y.model == Y511 || y.model == Y514
}

// decodeFloat32 unpacks one big-endian IEEE-754 float from two registers.
func decodeFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
