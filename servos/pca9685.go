package servos

import (
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultPCA9685Address = 0x40

	// Internal oscillator frequency.
	pcaClock = 25000000

	regMode1    = 0x00
	regLED0     = 0x06
	regAllLED   = 0xFA
	regPrescale = 0xFE

	mode1Restart = 0x80
	mode1AI      = 0x20
	mode1Sleep   = 0x10

	// Bit 4 of the high byte of ON (or OFF) forces the output fully on (or off).
	fullBit = 0x10
)

// Bus writes to registers of a single I2C device.
type Bus interface {
	WriteReg(reg byte, data ...byte) error
	Close() error
}

// PCA9685 drives the sixteen-channel PWM chip found on most servo hats.
type PCA9685 struct {
	bus Bus
}

// NewPCA9685 wakes the chip up and sets it to the servo frequency.
func NewPCA9685(bus Bus) (*PCA9685, error) {
	p := &PCA9685{bus: bus}

	steps := []struct {
		reg  byte
		val  byte
		what string
	}{
		{regMode1, mode1Sleep, "sleeping"},
		{regPrescale, Prescale(Frequency), "setting prescale"},
		{regMode1, mode1AI, "waking"},
	}

	for _, s := range steps {
		if err := bus.WriteReg(s.reg, s.val); err != nil {
			return nil, errors.Wrapf(err, "pca9685: %s", s.what)
		}
	}

	// The oscillator needs 500us to start after waking.
	time.Sleep(5 * time.Millisecond)

	if err := bus.WriteReg(regMode1, mode1Restart|mode1AI); err != nil {
		return nil, errors.Wrap(err, "pca9685: restarting")
	}

	log.Infof("pca9685 ready at %dHz", Frequency)
	return p, nil
}

// Prescale returns the prescale register value for the given PWM frequency.
func Prescale(freq int) byte {
	return byte(int(float64(pcaClock)/(resolution*float64(freq))+0.5) - 1)
}

func (p *PCA9685) SetDuty(channel int, duty uint16) error {
	if channel < 0 || channel >= NumChannels {
		return errors.Wrapf(ErrChannel, "channel %d", channel)
	}

	return p.bus.WriteReg(regLED0+byte(4*channel), ledRegs(duty)...)
}

func (p *PCA9685) Relax() error {
	return p.bus.WriteReg(regAllLED, 0, 0, 0, fullBit)
}

func (p *PCA9685) Close() error {
	return p.bus.Close()
}

// ledRegs returns the ON_L, ON_H, OFF_L, OFF_H register values for a 16-bit
// duty cycle. Every pulse starts at count zero.
func ledRegs(duty uint16) []byte {
	if duty == 0xFFFF {
		return []byte{0, fullBit, 0, 0}
	}

	off := (uint32(duty) + 1) >> 4
	return []byte{0, 0, byte(off), byte(off >> 8)}
}
