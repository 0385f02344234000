// Zero moves every servo channel to the centre pulse, which is handy when
// fitting horns to the servos.
package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quadwalker/quadruped/servos"
)

var (
	driver     = flag.String("driver", "pca9685", "the servo driver: pca9685 or maestro")
	i2cPath    = flag.String("i2c", "/dev/i2c-1", "the i2c bus of the pca9685")
	serialPort = flag.String("serial", "/dev/ttyACM0", "the serial port of the maestro")
	hold       = flag.Duration("hold", 0, "how long to hold the position before relaxing (zero holds forever)")
)

func main() {
	flag.Parse()

	d, err := servos.Open(*driver, *i2cPath, *serialPort)
	if err != nil {
		logrus.Fatal(err)
	}

	act := servos.NewActuator(d)
	defer act.Close()

	for ch := 0; ch < servos.NumChannels; ch++ {
		if err := act.SetPulse(ch, servos.CenterPulse); err != nil {
			logrus.Fatal(err)
		}
	}

	logrus.Infof("set %d channels to %.0fus", servos.NumChannels, servos.CenterPulse)

	if *hold == 0 {
		return
	}

	time.Sleep(*hold)
	if err := act.Relax(); err != nil {
		logrus.Fatal(err)
	}
}
