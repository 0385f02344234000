// Teleop sends a fixed command to the robot at a steady rate, for driving it
// around from a shell (or a script) without the GUI.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped/link"
)

// The ranges of the sliders on the GUI. The robot doesn't enforce these, but
// it's only ever been tuned within them.
const (
	maxForward  = 35
	maxRight    = 11
	maxRotation = 5
	maxDelay    = 200
	maxSteps    = 10
)

var (
	addr     = flag.String("addr", "localhost:9999", "the robot's address")
	forward  = flag.Int("forward", 0, "forward speed")
	right    = flag.Int("right", 0, "sideways speed (positive is rightwards)")
	rotation = flag.Int("rotation", 0, "rotation speed")
	delay    = flag.Int("delay", 0, "tick interval in ms (zero uses the robot's setting)")
	steps    = flag.Int("steps", 2, "path points to advance per tick")
	rate     = flag.Duration("rate", 100*time.Millisecond, "time between packets")
	duration = flag.Duration("duration", 0, "stop after this long (zero runs until interrupted)")
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "teleop",
})

func clamp(v, min, max int) int32 {
	if v < min {
		return int32(min)
	}

	if v > max {
		return int32(max)
	}

	return int32(v)
}

// command builds the command to send, clamped to the GUI's ranges.
func command(fwd, right, rot, delay, steps int) link.Command {
	return link.Command{
		Forward:   clamp(fwd, -maxForward, maxForward),
		Right:     clamp(right, -maxRight, maxRight),
		Rotation:  clamp(rot, -maxRotation, maxRotation),
		DelayMs:   clamp(delay, 0, maxDelay),
		StepCount: clamp(steps, 0, maxSteps),
	}
}

func main() {
	flag.Parse()

	s, err := link.Dial(*addr)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	cmd := command(*forward, *right, *rotation, *delay, *steps)
	log.Infof("sending %s to %s every %s", cmd, *addr, *rate)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	var end <-chan time.Time
	if *duration > 0 {
		end = time.After(*duration)
	}

	t := time.NewTicker(*rate)
	defer t.Stop()

	for {
		if err := s.Send(cmd); err != nil {
			log.Error(err)
		}

		select {
		case <-t.C:
		case <-end:
			log.Info("done")
			return
		case <-c:
			// Leave the robot standing still, rather than waiting for the
			// watchdog to notice.
			if err := s.Send(command(0, 0, 0, 0, 0)); err != nil {
				log.Error(err)
			}
			return
		}
	}
}
