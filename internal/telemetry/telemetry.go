package telemetry

import (
	"context"

	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/logger"
	"codeberg.org/varden/envsensord/internal/sensor"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation used when persistence is disabled
type noopCollector struct{}

func NewService(cfg Config) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		logger.Debug().Msg("Readings persistence disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil || snapshot.Sensor == "" {
		return errFactory.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Store(ctx, snapshot); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrServiceShutdown, err)
	}
	return nil
}

func (*noopCollector) Record(_ context.Context, _ *Snapshot) error {
	return nil
}

func (*noopCollector) Close() error {
	return nil
}

// SnapshotFrom assembles a snapshot from a sensor's finalized variables.
// Variables are matched to readings positionally by registration order.
func SnapshotFrom(s *sensor.Sensor, vars []*sensor.Variable) *Snapshot {
	snapshot := &Snapshot{
		Sensor: s.Name(),
		Status: uint8(s.Status()),
	}

	for _, v := range vars {
		if v == nil {
			continue
		}
		value := v.Value()
		snapshot.Readings = append(snapshot.Readings, Reading{
			Variable: v.Code(),
			Unit:     v.Unit(),
			Value:    value,
			Valid:    value != sensor.NoValue,
		})
	}

	return snapshot
}
