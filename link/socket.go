package link

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Socket is the part of *net.UDPConn which the receive loop uses.
type Socket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

type SocketFactory interface {
	ListenUDP(addr string) (Socket, error)
}

// UDPSocketFactory opens real UDP sockets, with SO_REUSEADDR set so a
// restarted process can rebind the port straight away.
type UDPSocketFactory struct{}

func (UDPSocketFactory) ListenUDP(addr string) (Socket, error) {
	lc := net.ListenConfig{Control: reuseAddr}

	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, errors.Errorf("not a UDP socket: %T", pc)
	}

	return conn, nil
}

// MockSocket returns queued datagrams from ReadFromUDP, then times out until
// more are pushed. It's safe to push from another goroutine while the link is
// reading.
type MockSocket struct {
	mu      sync.Mutex
	packets [][]byte
	err     error
	closed  bool
	reads   int
}

func NewMockSocket(packets ...[]byte) *MockSocket {
	return &MockSocket{packets: packets}
}

// Push queues a datagram to be returned by the next read.
func (m *MockSocket) Push(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packets = append(m.packets, b)
}

// Fail makes the next read return err.
func (m *MockSocket) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockSocket) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reads returns the number of calls to ReadFromUDP so far.
func (m *MockSocket) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *MockSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	m.reads++

	if m.closed {
		m.mu.Unlock()
		return 0, nil, net.ErrClosed
	}

	if m.err != nil {
		err := m.err
		m.err = nil
		m.mu.Unlock()
		return 0, nil, err
	}

	if len(m.packets) == 0 {
		m.mu.Unlock()

		// Don't spin too hard while waiting.
		time.Sleep(time.Millisecond)
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}
	}

	p := m.packets[0]
	m.packets = m.packets[1:]
	m.mu.Unlock()

	return copy(b, p), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}, nil
}

func (m *MockSocket) SetReadDeadline(t time.Time) error {
	return nil
}

func (m *MockSocket) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9998}
}

func (m *MockSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockSocketFactory hands out a single MockSocket.
type MockSocketFactory struct {
	Socket *MockSocket
	Err    error
	Addrs  []string
}

func (f *MockSocketFactory) ListenUDP(addr string) (Socket, error) {
	f.Addrs = append(f.Addrs, addr)
	if f.Err != nil {
		return nil, f.Err
	}

	return f.Socket, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
