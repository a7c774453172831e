package sensor

import "math"

// Variable is the standard observer: one reported quantity tied to a sensor
// result slot, carrying the metadata downstream consumers need (name, unit,
// short code) and the latest finalized value rounded to the quantity's
// resolution.
type Variable struct {
	name       string
	unit       string
	code       string
	resolution int

	value   float64
	updated bool
}

// NewVariable creates a variable for one reported quantity. resolution is
// the number of decimal places that are actually meaningful for the
// instrument; values are rounded to it on update.
func NewVariable(name, unit, code string, resolution int) *Variable {
	return &Variable{
		name:       name,
		unit:       unit,
		code:       code,
		resolution: resolution,
		value:      NoValue,
	}
}

func (v *Variable) Name() string { return v.name }
func (v *Variable) Unit() string { return v.unit }
func (v *Variable) Code() string { return v.code }

// Update implements Observer. The sentinel passes through unrounded so it
// stays recognizable downstream.
func (v *Variable) Update(value float64) {
	if value == NoValue {
		v.value = NoValue
	} else {
		v.value = roundTo(value, v.resolution)
	}
	v.updated = true
}

// Value returns the latest finalized value, or NoValue if the variable has
// never been updated or the last cycle produced no data.
func (v *Variable) Value() float64 {
	return v.value
}

// Updated reports whether the variable has received at least one
// notification.
func (v *Variable) Updated() bool {
	return v.updated
}

func roundTo(value float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(value*shift) / shift
}
