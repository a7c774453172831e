package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/varden/envsensord/internal/config"
	"codeberg.org/varden/envsensord/internal/devices"
	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/logger"
	"codeberg.org/varden/envsensord/internal/pid"
	"codeberg.org/varden/envsensord/internal/sensor"
	"codeberg.org/varden/envsensord/internal/telemetry"
)

// instrument couples a sensor with its registered variables and whatever
// the driver needs closed at shutdown.
type instrument struct {
	sensor *sensor.Sensor
	vars   []*sensor.Variable
	closer func() error
}

var (
	cfg         *config.Config
	instruments []*instrument
	collector   telemetry.Collector
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write pid file")
	}

	if err := initStation(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize station")
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	cleanup()
}

func initStation() error {
	errFactory := errors.New()

	var err error
	collector, err = telemetry.NewService(telemetry.Config{
		Enabled: cfg.Telemetry,
		DBPath:  cfg.Database,
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	if cfg.Processor.Enabled {
		if err := addProcessor(); err != nil {
			return err
		}
	}
	if cfg.Yosemitech.Enabled {
		if err := addYosemitech(); err != nil {
			return err
		}
	}
	if cfg.BME280.Enabled {
		if err := addBME280(); err != nil {
			return err
		}
	}

	if len(instruments) == 0 {
		return errFactory.WithMessage(errors.ErrMissingConfig, "no sensors enabled")
	}

	for _, inst := range instruments {
		if err := inst.sensor.Setup(); err != nil {
			// A sensor that fails setup stays in the rotation; it may
			// recover once the hardware settles and setup is retried.
			logger.Warn().
				Str("sensor", inst.sensor.Name()).
				Err(err).
				Msg("Sensor setup failed")
		}
	}

	logger.Info().Int("sensors", len(instruments)).Msg("Station initialized")

	return nil
}

func addProcessor() error {
	var opts []devices.ProcessorOption
	if cfg.Processor.BatteryPath != "" {
		opts = append(opts, devices.WithBatteryPath(cfg.Processor.BatteryPath))
	}
	drv := devices.NewProcessorStats(opts...)

	s, err := sensor.New(devices.ProcessorSpec(cfg.SamplesPerRead), drv)
	if err != nil {
		return err
	}

	return register(s, nil,
		sensor.NewVariable("batteryVoltage", "V", "Battery", 3),
		sensor.NewVariable("freeRAM", "B", "FreeRam", 0),
		sensor.NewVariable("sequenceNumber", "", "SampNum", 0),
	)
}

func addYosemitech() error {
	drv, err := devices.NewYosemitech(
		devices.YosemitechModel(cfg.Yosemitech.Model),
		cfg.Yosemitech.Port,
		cfg.Yosemitech.Baud,
		byte(cfg.Yosemitech.Address),
	)
	if err != nil {
		return err
	}

	s, err := sensor.New(drv.Spec(cfg.SamplesPerRead), drv)
	if err != nil {
		return err
	}

	var vars []*sensor.Variable
	switch devices.YosemitechModel(cfg.Yosemitech.Model) {
	case devices.Y514:
		vars = append(vars, sensor.NewVariable("chlorophyllFluorescence", "ug/L", "Chlorophyll", 2))
	case devices.Y520:
		vars = append(vars, sensor.NewVariable("specificConductance", "uS/cm", "Cond", 1))
	default:
		vars = append(vars, sensor.NewVariable("turbidity", "NTU", "Turbidity", 2))
	}
	vars = append(vars, sensor.NewVariable("temperature", "degC", "WaterTemp", 1))
	if s.Spec().NumVars > len(vars) {
		vars = append(vars, sensor.NewVariable("salinity", "ppt", "Salinity", 2))
	}

	return register(s, drv.Close, vars...)
}

func addBME280() error {
	drv := devices.NewBME280(cfg.BME280.Bus, uint16(cfg.BME280.Address))

	s, err := sensor.New(devices.BME280Spec(cfg.SamplesPerRead), drv)
	if err != nil {
		return err
	}

	return register(s, drv.Close,
		sensor.NewVariable("temperature", "degC", "AirTemp", 2),
		sensor.NewVariable("relativeHumidity", "%", "Humidity", 3),
		sensor.NewVariable("barometricPressure", "hPa", "Baro", 2),
		sensor.NewVariable("altitude", "m", "Altitude", 0),
	)
}

func register(s *sensor.Sensor, closer func() error, vars ...*sensor.Variable) error {
	for slot, v := range vars {
		if err := s.RegisterVariable(slot, v); err != nil {
			return err
		}
	}

	instruments = append(instruments, &instrument{
		sensor: s,
		vars:   vars,
		closer: closer,
	})

	return nil
}

func loop(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First round immediately; the ticker covers the rest.
	updateAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			updateAll(ctx)
		}
	}
}

// updateAll drives every instrument through one full cycle, strictly one at
// a time. The long stabilization windows of the water probes dominate the
// round; that serialized latency is the documented cost of the single
// execution context.
func updateAll(ctx context.Context) {
	for _, inst := range instruments {
		if ctx.Err() != nil {
			return
		}

		s := inst.sensor
		if !s.Status().SetupComplete() {
			// Setup can fail transiently (hardware still settling); retry
			// each round until it sticks.
			if err := s.Setup(); err != nil {
				logger.Warn().Str("sensor", s.Name()).Err(err).Msg("Setup retry failed")
				continue
			}
			s.ClearError()
		}
		if err := s.Update(); err != nil {
			logger.Warn().Str("sensor", s.Name()).Err(err).Msg("Update skipped")
			continue
		}

		logReadings(inst)

		snapshot := telemetry.SnapshotFrom(s, inst.vars)
		snapshot.Timestamp = time.Now()
		if err := collector.Record(ctx, snapshot); err != nil {
			logger.Error().Str("sensor", s.Name()).Err(err).Msg("Failed to record readings")
		}

		if s.Status().HasError() {
			logger.Warn().
				Str("sensor", s.Name()).
				Str("status", s.Status().String()).
				Msg("Cycle completed with degraded data")
			s.ClearError()
		}
	}
}

func logReadings(inst *instrument) {
	event := logger.Info().Str("sensor", inst.sensor.Name())
	for _, v := range inst.vars {
		if v.Value() == sensor.NoValue {
			event = event.Str(v.Code(), "no data")
		} else {
			event = event.Float64(v.Code(), v.Value())
		}
	}
	event.Msg("Readings")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	for _, inst := range instruments {
		inst.sensor.PowerDown()
		if inst.closer != nil {
			if err := inst.closer(); err != nil {
				logger.Error().Str("sensor", inst.sensor.Name()).Err(err).Msg("failed to close driver")
			}
		}
	}

	if err := collector.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close telemetry")
	}
	if err := pid.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove pid file")
	}
	logger.Info().Msg("Exiting...")
}
