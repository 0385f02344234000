// Package config reads the robot's settings file.
//
// The file is JSON, with a "default" section holding the joint limits shared
// by every leg, one section per leg, and a "general" section for everything
// else. Anything missing from the file keeps the value from Default.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped/components/legs/gait"
	"github.com/quadwalker/quadruped/ik"
	"github.com/quadwalker/quadruped/servos"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "config",
})

// Limits are the angles (in degrees) at either end of each servo's travel.
type Limits struct {
	BaseMin float64 `json:"base_min_angle"`
	BaseMax float64 `json:"base_max_angle"`
	HipMin  float64 `json:"hip_min_angle"`
	HipMax  float64 `json:"hip_max_angle"`
	KneeMin float64 `json:"knee_min_angle"`
	KneeMax float64 `json:"knee_max_angle"`
}

type Leg struct {
	BaseChannel int `json:"base_channel"`
	HipChannel  int `json:"hip_channel"`
	KneeChannel int `json:"knee_channel"`

	Upper float64 `json:"upper_len"`
	Thigh float64 `json:"thigh_len"`
	Shank float64 `json:"shank_len"`

	// Calibration offsets, added to both ends of the default limits.
	BaseOffset float64 `json:"base_offset"`
	HipOffset  float64 `json:"hip_offset"`
	KneeOffset float64 `json:"knee_offset"`

	// Which way each servo turns, as +1 or -1.
	BaseSign float64 `json:"base"`
	HipSign  float64 `json:"hip"`
	KneeSign float64 `json:"knee"`

	Topology    string     `json:"topology"`
	LateralSign float64    `json:"lateral_sign"`
	Lever       [2]float64 `json:"lever"`
}

type General struct {
	// Multiplied by the raw wire values to get speeds in mm per path unit.
	CollinearMaxSpeed float64 `json:"collinear_max_speed"`
	PerpMaxSpeed      float64 `json:"perp_max_speed"`
	RotationMaxSpeed  float64 `json:"rotation_max_speed"`

	StepCount    int `json:"step_count"`
	MaxStepCount int `json:"max_step_count"`

	// Milliseconds between gait ticks.
	Delay int `json:"delay"`

	HeightTop    float64 `json:"height_top"`
	HeightBottom float64 `json:"height_bottom"`

	// How far (in mm) above the top of the envelope the feet start when
	// standing up, and return to when sitting down.
	SitOffset float64 `json:"sit_offset"`

	WatchdogMs int `json:"watchdog_ms"`

	PathStep float64 `json:"path_step"`
	Dwell    bool    `json:"dwell"`
}

type Settings struct {
	Default    Limits  `json:"default"`
	FrontLeft  Leg     `json:"front_left"`
	FrontRight Leg     `json:"front_right"`
	RearLeft   Leg     `json:"rear_left"`
	RearRight  Leg     `json:"rear_right"`
	General    General `json:"general"`
}

// Default returns the settings for the stock robot.
func Default() *Settings {
	leg := func(base int, lat float64, lever gait.Lever) Leg {
		return Leg{
			BaseChannel: base,
			HipChannel:  base + 1,
			KneeChannel: base + 2,
			Upper:       38,
			Thigh:       44,
			Shank:       50,
			BaseSign:    1,
			HipSign:     1,
			KneeSign:    1,
			Topology:    ik.Spatial.String(),
			LateralSign: lat,
			Lever:       [2]float64{lever.X, lever.Y},
		}
	}

	return &Settings{
		Default: Limits{
			BaseMin: -45, BaseMax: 45,
			HipMin: -90, HipMax: 90,
			KneeMin: 0, KneeMax: 180,
		},
		FrontLeft:  leg(0, -1, gait.DefaultLevers[gait.FrontLeft]),
		FrontRight: leg(3, 1, gait.DefaultLevers[gait.FrontRight]),
		RearLeft:   leg(6, -1, gait.DefaultLevers[gait.RearLeft]),
		RearRight:  leg(9, 1, gait.DefaultLevers[gait.RearRight]),
		General: General{
			CollinearMaxSpeed: 1,
			PerpMaxSpeed:      1,
			RotationMaxSpeed:  1,
			StepCount:         2,
			MaxStepCount:      10,
			Delay:             20,
			HeightTop:         -65,
			HeightBottom:      -75,
			SitOffset:         20,
			WatchdogMs:        500,
			PathStep:          5,
			Dwell:             true,
		},
	}
}

// Load reads the settings file at path, on top of the defaults.
func Load(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading settings")
	}

	s := Default()
	if err := json.Unmarshal(b, s); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid settings in %s", path)
	}

	log.Debugf("loaded %s", path)
	return s, nil
}

// Leg returns the section for the given leg.
func (s *Settings) Leg(l gait.Leg) *Leg {
	switch l {
	case gait.FrontLeft:
		return &s.FrontLeft
	case gait.FrontRight:
		return &s.FrontRight
	case gait.RearLeft:
		return &s.RearLeft
	case gait.RearRight:
		return &s.RearRight
	}

	panic("config: invalid leg: " + l.String())
}

// Validate returns an error describing the first problem with the settings.
func (s *Settings) Validate() error {
	seen := map[int]gait.Leg{}

	for _, l := range gait.Legs {
		ls := s.Leg(l)

		if _, err := topology(ls.Topology); err != nil {
			return errors.Wrap(err, l.String())
		}

		if ls.Thigh <= 0 || ls.Shank <= 0 || ls.Upper < 0 {
			return errors.Errorf("%s: segment lengths must be positive", l)
		}

		for _, ch := range Channels(ls) {
			if ch < 0 || ch >= servos.NumChannels {
				return errors.Errorf("%s: channel %d out of range", l, ch)
			}

			if other, ok := seen[ch]; ok {
				return errors.Errorf("%s: channel %d already used by %s", l, ch, other)
			}

			seen[ch] = l
		}
	}

	g := s.General
	switch {
	case g.StepCount < 0 || g.MaxStepCount < 0:
		return errors.New("step counts can't be negative")
	case g.Delay < 0:
		return errors.New("delay can't be negative")
	case g.WatchdogMs <= 0:
		return errors.New("watchdog_ms must be positive")
	case g.PathStep <= 0:
		return errors.New("path_step must be positive")
	case g.HeightTop <= g.HeightBottom:
		return errors.Errorf("height_top (%.1f) must be above height_bottom (%.1f)", g.HeightTop, g.HeightBottom)
	}

	return nil
}

// Channels returns the base, hip and knee channels of a leg.
func Channels(l *Leg) [3]int {
	return [3]int{l.BaseChannel, l.HipChannel, l.KneeChannel}
}

// JointLimits are the servo limits of one leg, with calibration applied.
type JointLimits struct {
	Base ik.Limit
	Hip  ik.Limit
	Knee ik.Limit
}

// ServoLimits returns the default limits shifted by the leg's offsets.
func (s *Settings) ServoLimits(l gait.Leg) JointLimits {
	d := s.Default
	ls := s.Leg(l)

	return JointLimits{
		Base: ik.Limit{Min: d.BaseMin + ls.BaseOffset, Max: d.BaseMax + ls.BaseOffset},
		Hip:  ik.Limit{Min: d.HipMin + ls.HipOffset, Max: d.HipMax + ls.HipOffset},
		Knee: ik.Limit{Min: d.KneeMin + ls.KneeOffset, Max: d.KneeMax + ls.KneeOffset},
	}
}

// Geometry returns the solver geometry for a leg. Validate first; an unknown
// topology falls back to spatial.
func (s *Settings) Geometry(l gait.Leg) ik.Geometry {
	ls := s.Leg(l)
	lim := s.ServoLimits(l)
	topo, _ := topology(ls.Topology)

	return ik.Geometry{
		Topology:    topo,
		Upper:       ls.Upper,
		Thigh:       ls.Thigh,
		Shank:       ls.Shank,
		Base:        ik.Joint{Limit: lim.Base, Sign: ls.BaseSign},
		Hip:         ik.Joint{Limit: lim.Hip, Sign: ls.HipSign},
		Knee:        ik.Joint{Limit: lim.Knee, Sign: ls.KneeSign},
		LateralSign: ls.LateralSign,
	}
}

func (s *Settings) Lever(l gait.Leg) gait.Lever {
	lv := s.Leg(l).Lever
	return gait.Lever{X: lv[0], Y: lv[1]}
}

// Levers returns the lever of every leg, in gait order.
func (s *Settings) Levers() [gait.NumLegs]gait.Lever {
	var out [gait.NumLegs]gait.Lever
	for _, l := range gait.Legs {
		out[l] = s.Lever(l)
	}

	return out
}

// Interval is the time between gait ticks.
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.General.Delay) * time.Millisecond
}

func (s *Settings) Watchdog() time.Duration {
	return time.Duration(s.General.WatchdogMs) * time.Millisecond
}

func (s *Settings) Envelope() gait.Envelope {
	return gait.Envelope{Top: s.General.HeightTop, Bottom: s.General.HeightBottom}
}

// Path builds the foot path from the reference waypoints.
func (s *Settings) Path() gait.Path {
	if s.General.Dwell {
		return gait.InterpolateWeighted(gait.ReferenceWaypoints, s.General.PathStep)
	}

	return gait.Interpolate(gait.ReferenceWaypoints, s.General.PathStep)
}

func topology(name string) (ik.Topology, error) {
	switch name {
	case "", ik.Spatial.String():
		return ik.Spatial, nil
	case ik.Planar.String():
		return ik.Planar, nil
	}

	return ik.Spatial, errors.Errorf("unknown topology: %q", name)
}
