package math3d

import (
	"fmt"

	"github.com/quadwalker/quadruped/utils"
)

// EulerAngles are stored in radians. Heading turns about the Y (forwards)
// axis, which is the axis of a leg's base joint.
type EulerAngles struct {
	Heading float64 // y
	Pitch   float64 // x
	Bank    float64 // z
}

type rotation int

const (
	RotationHeading rotation = iota
	RotationPitch
	RotationBank
)

var (
	IdentityOrientation = EulerAngles{}
)

// MakeSingularEulerAngle returns angles with a single rotation set, given in
// degrees.
func MakeSingularEulerAngle(rot rotation, angle float64) *EulerAngles {
	ea := &EulerAngles{}

	switch rot {
	case RotationHeading:
		ea.Heading = utils.Rad(angle)

	case RotationPitch:
		ea.Pitch = utils.Rad(angle)

	case RotationBank:
		ea.Bank = utils.Rad(angle)

	default:
		panic("invalid rotation")
	}

	return ea
}

func (ea EulerAngles) String() string {
	return fmt.Sprintf("&Euler{h=%+.2f° p=%+.2f° b=%+.2f°}", utils.Deg(ea.Heading), utils.Deg(ea.Pitch), utils.Deg(ea.Bank))
}
