package servos

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// From linux/i2c-dev.h
const i2cSlave = 0x0703

// I2C is a device on a Linux i2c-dev bus, e.g. /dev/i2c-1.
type I2C struct {
	f *os.File
}

func OpenI2C(path string, addr int) (*I2C, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "opening i2c bus")
	}

	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, addr); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "selecting i2c device 0x%02x", addr)
	}

	return &I2C{f: f}, nil
}

func (b *I2C) WriteReg(reg byte, data ...byte) error {
	buf := append([]byte{reg}, data...)

	n, err := b.f.Write(buf)
	if err != nil {
		return errors.Wrapf(err, "writing register 0x%02x", reg)
	}

	if n != len(buf) {
		return errors.Errorf("short write to register 0x%02x: %d of %d bytes", reg, n, len(buf))
	}

	return nil
}

func (b *I2C) Close() error {
	return b.f.Close()
}
