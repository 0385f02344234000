//go:build !linux

package servos

import (
	"github.com/pkg/errors"
)

// I2C is only implemented on Linux.
type I2C struct{}

func OpenI2C(path string, addr int) (*I2C, error) {
	return nil, errors.New("i2c-dev is only supported on linux")
}

func (b *I2C) WriteReg(reg byte, data ...byte) error {
	return errors.New("i2c-dev is only supported on linux")
}

func (b *I2C) Close() error {
	return nil
}
