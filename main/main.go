package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped"
	"github.com/quadwalker/quadruped/components/controller"
	"github.com/quadwalker/quadruped/components/legs"
	"github.com/quadwalker/quadruped/components/reload"
	"github.com/quadwalker/quadruped/config"
	fakeservos "github.com/quadwalker/quadruped/fake/servos"
	"github.com/quadwalker/quadruped/link"
	"github.com/quadwalker/quadruped/servos"
)

// How often the loop checks whether a tick is due. The tick interval itself
// comes from the settings (or the operator).
const pollInterval = 1 * time.Millisecond

var (
	configPath  = flag.String("config", "settings.json", "the settings file")
	listen      = flag.String("listen", link.DefaultAddress, "the address to receive commands on")
	replay      = flag.String("replay", "", "replay commands from a pcap file instead of listening")
	replayPort  = flag.Int("replay-port", 9999, "the UDP port to replay from the capture (0 for any)")
	replaySpeed = flag.Float64("replay-speed", 1.0, "replay speed multiplier")
	driver      = flag.String("driver", "pca9685", "the servo driver: pca9685, maestro, or fake")
	i2cPath     = flag.String("i2c", "/dev/i2c-1", "the i2c bus of the pca9685")
	serialPort  = flag.String("serial", "/dev/ttyACM0", "the serial port of the maestro")
	debug       = flag.Bool("debug", false, "log every tick")
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "main",
})

func main() {
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	log.Infof("loading %s", *configPath)
	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("error loading settings: %s", err)
	}

	log.Infof("opening %s driver", *driver)
	var d servos.Driver
	if *driver == "fake" {
		d = fakeservos.New()
	} else {
		d, err = servos.Open(*driver, *i2cPath, *serialPort)
		if err != nil {
			log.Fatalf("error opening driver: %s", err)
		}
	}

	act := servos.NewActuator(d)
	defer act.Close()

	l := link.New(link.Config{Address: *listen})
	if *replay != "" {
		err = l.StartReplay(*replay, *replayPort, *replaySpeed)
	} else {
		err = l.Start()
	}
	if err != nil {
		log.Fatalf("error starting link: %s", err)
	}
	defer l.Stop()

	log.Info("creating components")
	ctrl := controller.New(l, settings)
	lg := legs.New(act, settings)

	r := quadruped.New(settings.Interval())
	r.Add(ctrl)
	r.Add(reload.New(*configPath, ctrl, lg))
	r.Add(lg)

	log.Info("booting components")
	if err := r.Boot(); err != nil {
		log.Errorf("error while booting: %s", err)
		if err := act.Relax(); err != nil {
			log.Error(err)
		}
		act.Close()
		os.Exit(1)
	}

	// Catch both SIGINT (ctrl+c) and SIGTERM (kill/systemd), to allow the robot
	// to sit down and power down its servos before exiting.
	stop := make(chan struct{})
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info("caught signal, shutting down")
		close(stop)
	}()

	log.Info("starting loop")
	r.Run(stop, pollInterval)

	// Run gives up if the legs never halt. The servos must not stay powered.
	if !r.State.Halted {
		if err := act.Relax(); err != nil {
			log.Error(err)
		}
	}

	st := l.Stats()
	log.Infof("done; received=%d malformed=%d", st.Received, st.Malformed)
}
