package link

import (
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// StartReplay is like Start, but rather than listening on a socket, it reads
// UDP datagrams sent to the given port (zero means any port) from a pcap
// capture. Datagrams are published with the same spacing they were captured
// with, divided by speed. When the capture runs out the link goes stale, just
// like a dead socket.
func (l *Link) StartReplay(path string, port int, speed float64) error {
	if speed <= 0 {
		speed = 1
	}

	l.lmu.Lock()
	defer l.lmu.Unlock()

	if l.running {
		return ErrRunning
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening capture")
	}

	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "reading capture header from %s", path)
	}

	l.begin()
	l.log.Infof("replaying %s (port=%d, speed=%.1fx)", path, port, speed)

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		defer f.Close()
		l.replay(gopacket.NewPacketSource(r, r.LinkType()), port, speed, stop)
	}(l.stop, l.done)

	return nil
}

func (l *Link) replay(src *gopacket.PacketSource, port int, speed float64, stop <-chan struct{}) {
	var prev time.Time
	var n int

	for {
		pkt, err := src.NextPacket()
		if err == io.EOF {
			l.log.Infof("replay finished after %d datagrams", n)
			return
		}

		if err != nil {
			l.log.Errorf("replay failed: %s", err)
			return
		}

		ts := pkt.Metadata().Timestamp
		if !prev.IsZero() {
			if d := time.Duration(float64(ts.Sub(prev)) / speed); d > 0 {
				select {
				case <-stop:
					return
				case <-time.After(d):
				}
			}
		}

		prev = ts

		select {
		case <-stop:
			return
		default:
		}

		udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok {
			continue
		}

		if port != 0 && int(udp.DstPort) != port {
			continue
		}

		n++
		if err := l.handle(udp.Payload); err != nil {
			l.log.Debugf("dropped replayed datagram: %s", err)
		}
	}
}
