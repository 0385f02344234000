package link

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// CommandSize is the length of an encoded command. Datagrams may be longer;
// anything after the first CommandSize bytes is padding.
const CommandSize = 20

var ErrMalformedPacket = errors.New("malformed packet")

// Command is the operator intent, as sent over the wire. The fields are
// encoded in this order, as little-endian int32s.
type Command struct {
	Forward   int32
	Right     int32
	Rotation  int32
	DelayMs   int32
	StepCount int32
}

func (c Command) String() string {
	return fmt.Sprintf("&Cmd{fwd=%d right=%d rot=%d delay=%dms steps=%d}", c.Forward, c.Right, c.Rotation, c.DelayMs, c.StepCount)
}

func (c Command) fields() [5]int32 {
	return [5]int32{c.Forward, c.Right, c.Rotation, c.DelayMs, c.StepCount}
}

func (c Command) MarshalBinary() ([]byte, error) {
	b := make([]byte, CommandSize)
	for i, v := range c.fields() {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(v))
	}

	return b, nil
}

// UnmarshalBinary decodes the first CommandSize bytes of b. The command is
// left untouched if b is too short.
func (c *Command) UnmarshalBinary(b []byte) error {
	if len(b) < CommandSize {
		return errors.Wrapf(ErrMalformedPacket, "got %d bytes, want at least %d", len(b), CommandSize)
	}

	var f [5]int32
	for i := range f {
		f[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}

	c.Forward, c.Right, c.Rotation, c.DelayMs, c.StepCount = f[0], f[1], f[2], f[3], f[4]
	return nil
}
