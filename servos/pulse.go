package servos

import (
	"math"
)

const (
	// Pulse widths (in microseconds) at either end of a servo's travel.
	MinPulse    = 500.0
	MaxPulse    = 2500.0
	CenterPulse = (MinPulse + MaxPulse) / 2

	// Hobby servos expect a pulse every 20ms.
	Frequency = 50
	period    = 1e6 / Frequency

	// The PWM chip counts in 12 bits; duties are passed around as 16.
	resolution = 4096
)

// PulseWidth maps an angle within [min, max] onto the pulse width range of a
// servo, in microseconds. Angles outside of the range are clamped to it. If
// min is greater than max, the servo is reversed. If they're equal, there's no
// range at all, and the center pulse is returned.
func PulseWidth(angle, min, max float64) float64 {
	if min == max {
		return CenterPulse
	}

	t := (angle - min) / (max - min)
	t = math.Max(0, math.Min(1, t))

	return MinPulse + t*(MaxPulse-MinPulse)
}

// Duty converts a pulse width (in microseconds) to a 16-bit duty cycle. Only
// the top 12 bits are ever set.
func Duty(pulse float64) uint16 {
	d := math.Round(pulse / period * resolution)
	d = math.Max(0, math.Min(resolution-1, d))

	return uint16(d) << 4
}

// PulseFromDuty is the inverse of Duty, within a twelfth of a bit.
func PulseFromDuty(duty uint16) float64 {
	return float64(duty>>4) * period / resolution
}
