// Package link receives operator commands over UDP.
//
// A single goroutine per Link reads datagrams and publishes the most recent
// valid command under a mutex. The control loop copies it out whenever it
// likes, and never waits on the network. Commands which arrive between two
// reads of Latest are simply overwritten.
package link

import (
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAddress     = ":9999"
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultJoinTimeout = 2 * time.Second

	// Big enough for any command plus padding.
	bufferSize = 1024
)

// Never is returned by TimeSinceLast until the first valid command arrives.
const Never = time.Duration(math.MaxInt64)

var ErrRunning = errors.New("link already running")

type Config struct {
	Address     string
	ReadTimeout time.Duration
	JoinTimeout time.Duration
	Factory     SocketFactory
}

type Stats struct {
	Received  uint64
	Malformed uint64
}

type Link struct {
	id  uuid.UUID
	log *logrus.Entry
	cfg Config

	// Guards cmd and last. Never held across a read.
	mu   sync.Mutex
	cmd  Command
	last time.Time

	// Guards the lifecycle fields below.
	lmu     sync.Mutex
	running bool
	sock    Socket
	stop    chan struct{}
	done    chan struct{}

	received  atomic.Uint64
	malformed atomic.Uint64
}

func New(cfg Config) *Link {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}

	if cfg.Factory == nil {
		cfg.Factory = UDPSocketFactory{}
	}

	id := uuid.New()
	return &Link{
		id:  id,
		cfg: cfg,
		log: logrus.WithFields(logrus.Fields{
			"pkg":  "link",
			"link": id.String(),
		}),
	}
}

func (l *Link) ID() uuid.UUID {
	return l.id
}

// Start binds the socket and starts receiving in the background.
func (l *Link) Start() error {
	l.lmu.Lock()
	defer l.lmu.Unlock()

	if l.running {
		return ErrRunning
	}

	sock, err := l.cfg.Factory.ListenUDP(l.cfg.Address)
	if err != nil {
		return err
	}

	l.sock = sock
	l.begin()
	l.log.Infof("listening on %s", sock.LocalAddr())

	go l.receive(sock, l.stop, l.done)
	return nil
}

// begin resets the lifecycle channels. The caller must hold lmu.
func (l *Link) begin() {
	l.running = true
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
}

// Addr returns the address the socket is bound to, or nil if the link isn't
// listening on one.
func (l *Link) Addr() net.Addr {
	l.lmu.Lock()
	defer l.lmu.Unlock()

	if l.sock == nil {
		return nil
	}

	return l.sock.LocalAddr()
}

// Running returns true between Start (or StartReplay) and Stop, even if the
// receive goroutine has since died.
func (l *Link) Running() bool {
	l.lmu.Lock()
	defer l.lmu.Unlock()
	return l.running
}

// Stop asks the receive goroutine to exit, waits (up to the join timeout) for
// it to do so, and closes the socket. Stopping a stopped link does nothing.
func (l *Link) Stop() error {
	l.lmu.Lock()
	defer l.lmu.Unlock()

	if !l.running {
		return nil
	}

	close(l.stop)

	select {
	case <-l.done:
	case <-time.After(l.cfg.JoinTimeout):
		l.log.Warnf("receive loop didn't stop within %s", l.cfg.JoinTimeout)
	}

	var err error
	if l.sock != nil {
		err = l.sock.Close()
		l.sock = nil
	}

	l.running = false
	l.log.Info("stopped")

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "closing socket")
	}

	return nil
}

// Latest returns a copy of the most recent valid command. It's the zero
// command until one arrives.
func (l *Link) Latest() Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cmd
}

// TimeSinceLast returns how long ago the most recent valid command arrived,
// or Never if none has.
func (l *Link) TimeSinceLast() time.Duration {
	l.mu.Lock()
	last := l.last
	l.mu.Unlock()

	if last.IsZero() {
		return Never
	}

	return time.Since(last)
}

func (l *Link) Stats() Stats {
	return Stats{
		Received:  l.received.Load(),
		Malformed: l.malformed.Load(),
	}
}

func (l *Link) receive(sock Socket, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, bufferSize)
	var deadlineErrLogged bool

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := sock.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout)); err != nil && !deadlineErrLogged {
			l.log.Warnf("failed to set read deadline: %s", err)
			deadlineErrLogged = true
		}

		n, addr, err := sock.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			select {
			case <-stop:
			default:
				if errors.Is(err, net.ErrClosed) {
					l.log.Warn("socket closed, receive loop exiting")
				} else {
					l.log.Errorf("receive failed, receive loop exiting: %s", err)
				}
			}

			return
		}

		if err := l.handle(buf[:n]); err != nil {
			l.log.Debugf("dropped datagram from %v: %s", addr, err)
		}
	}
}

// handle decodes a datagram and publishes it. Malformed datagrams are
// counted, and leave the published command alone.
func (l *Link) handle(b []byte) error {
	var c Command
	if err := c.UnmarshalBinary(b); err != nil {
		l.malformed.Add(1)
		return err
	}

	l.mu.Lock()
	l.cmd = c
	l.last = time.Now()
	l.mu.Unlock()

	if l.received.Add(1) == 1 {
		l.log.Infof("first command: %s", c)
	}

	return nil
}
