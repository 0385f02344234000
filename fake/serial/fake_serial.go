package serial

import (
	"bytes"
	"sync"

	log "github.com/sirupsen/logrus"
)

var logger = log.WithFields(log.Fields{
	"pkg": "fake/serial",
})

// FakeSerial is a serial port which records everything written to it, and
// never has anything to read.
type FakeSerial struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool

	// WriteErr, if set, is returned by every Write.
	WriteErr error
}

func (s *FakeSerial) Read(p []byte) (n int, err error) {
	logger.Debugf("read %d bytes", len(p))
	return 0, nil
}

func (s *FakeSerial) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return 0, s.WriteErr
	}

	logger.Debugf("write: %v", p)
	return s.buf.Write(p)
}

func (s *FakeSerial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debugf("close")
	s.closed = true
	return nil
}

// Written returns everything written so far.
func (s *FakeSerial) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

func (s *FakeSerial) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
