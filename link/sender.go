package link

import (
	"net"

	"github.com/pkg/errors"
)

// Sender sends commands to a robot. It's the other end of a Link.
type Sender struct {
	conn net.Conn
}

func Dial(addr string) (*Sender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return &Sender{conn: conn}, nil
}

func (s *Sender) Send(c Command) error {
	b, err := c.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = s.conn.Write(b)
	return errors.Wrap(err, "sending command")
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
