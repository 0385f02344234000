package servos

import (
	"github.com/pkg/errors"
)

// Open returns the named driver: "pca9685" on the given i2c bus, or
// "maestro" on the given serial port.
func Open(kind, i2cPath, serialPort string) (Driver, error) {
	switch kind {
	case "pca9685":
		bus, err := OpenI2C(i2cPath, DefaultPCA9685Address)
		if err != nil {
			return nil, err
		}

		p, err := NewPCA9685(bus)
		if err != nil {
			bus.Close()
			return nil, err
		}

		return p, nil

	case "maestro":
		return OpenMaestro(serialPort, NumChannels)
	}

	return nil, errors.Errorf("unknown driver: %q", kind)
}
