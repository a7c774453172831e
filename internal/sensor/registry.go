package sensor

import (
	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/logger"
)

// MaxVars is the largest number of result variables a single sensor can
// report. Inherited from the fixed-allocation datalogger firmware this
// protocol comes from; the registry is a fixed-capacity array, not a map.
const MaxVars = 8

// registry associates result slots with externally owned observers. The
// references are non-owning: the sensor never manages observer lifetime.
type registry struct {
	observers [MaxVars]Observer
}

// register stores obs at the given slot. Out-of-range slots are a
// configuration error and the registry is left untouched. Registering over
// an occupied slot overwrites the previous observer; that is a wiring
// mistake worth a warning, but overwrite is the defined behavior.
func (r *registry) register(slot int, obs Observer) error {
	if slot < 0 || slot >= MaxVars {
		return errors.New().WithData(ErrSlotOutOfRange, slot)
	}

	if r.observers[slot] != nil {
		logger.Warn().
			Int("slot", slot).
			Msg("Overwriting previously registered variable")
	}
	r.observers[slot] = obs

	return nil
}

// notify pushes the finalized values to each occupied slot's observer.
// Unoccupied slots are skipped; a slot that finalized to the sentinel is
// still delivered, since "no data this cycle" is itself a result.
func (r *registry) notify(values []float64) {
	for i, obs := range r.observers {
		if obs == nil || i >= len(values) {
			continue
		}
		obs.Update(values[i])
	}
}
