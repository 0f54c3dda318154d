package main

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/easygraphs/easygraphs-device/cmd/easygraphs-sim/subcmd"
	"github.com/easygraphs/easygraphs-device/config"
	"github.com/easygraphs/easygraphs-device/easygraphs"
	"github.com/easygraphs/easygraphs-device/helpers"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/radiostate"
	"github.com/easygraphs/easygraphs-device/rtcmem"
	"github.com/easygraphs/easygraphs-device/wifi"
	"github.com/easygraphs/easygraphs-device/wifi/stub"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
)

const (
	simSSID       = "easygraphs-sim"
	simChannel    = 6
	measureSleep  = 30 * time.Second
	maxRetrySleep = 10 * time.Minute
)

var simBSSID = radiostate.BSSID{0x02, 0xee, 0x67, 0x00, 0x00, 0x01}

// sensors produce smooth synthetic readings.
type sensors struct {
	rand *rand.Rand
	t    float64
}

func newSensors(r *rand.Rand) *sensors { return &sensors{rand: r} }

func (s *sensors) measure(d *easygraphs.Device) error {
	s.t += 0.1
	readings := []struct {
		name  string
		value float64
	}{
		{"temperature", 21 + 3*math.Sin(s.t) + s.rand.NormFloat64()*0.2},
		{"humidity", 45 + 10*math.Cos(s.t/3) + s.rand.NormFloat64()},
		{"pressure", 1013 + s.rand.NormFloat64()*2},
	}
	for _, r := range readings {
		if err := d.AddParameter(r.name, float32(r.value)); err != nil {
			return errors.Annotatef(err, "measure %s", r.name)
		}
	}
	return nil
}

// wake is one device power cycle, RAM state does not survive it.
type wake struct {
	c       *config.Config
	log     *log2.Log
	mem     rtcmem.Memory
	radio   *stub.Radio
	sleeper wifi.Sleeper
	sensors *sensors
}

// run returns true when measurements were published.
func (w *wake) run(ctx context.Context) (bool, error) {
	d := easygraphs.New("",
		easygraphs.WithConfig(w.c),
		easygraphs.WithLog(w.log),
		easygraphs.WithMemory(w.mem),
		easygraphs.WithRadio(w.radio),
		easygraphs.WithSleeper(w.sleeper),
	)
	if err := d.InitWIFI(w.c.Wifi.SSID, w.c.Wifi.Password); err != nil {
		if errors.Cause(err) == wifi.ErrGaveUp {
			// already slept inside InitWIFI
			w.log.Info(err)
			return false, nil
		}
		return false, err
	}
	if err := w.sensors.measure(d); err != nil {
		return false, err
	}
	if !d.Publish(ctx) {
		w.log.Errorf("publish failed %s", d.GetError().Error())
		return false, nil
	}
	return true, nil
}

func cycleMain(ctx context.Context, log *log2.Log, c *config.Config) error {
	a := getAlive(ctx)
	if c.Wifi.SSID == "" {
		c.Wifi.SSID = simSSID
	}
	mem, err := rtcmem.NewFileMem(filepath.Join(c.Persist.Root, "rtc"), c.Persist.RtcSize, log)
	if err != nil {
		return errors.Annotate(err, "cycle")
	}
	w := &wake{
		c:       c,
		log:     log,
		mem:     mem,
		radio:   stub.New(stub.AccessPoint{SSID: c.Wifi.SSID, Pass: c.Wifi.Password, Channel: simChannel, BSSID: simBSSID}),
		sleeper: aliveSleeper(a, log),
		sensors: newSensors(helpers.RandUnix()),
	}
	backoff := helpers.Backoff{Min: measureSleep, Max: maxRetrySleep, K: 2, Res: time.Second}

	subcmd.SdNotify(log, "READY=1")
	log.Infof("cycle publish to %s", c.Api.URL())
	for a.IsRunning() {
		ok, err := w.run(ctx)
		if err != nil {
			return errors.Annotate(err, "cycle")
		}
		if err := w.sleeper.DeepSleep(backoff.Next(ok), true); err != nil {
			return errors.Annotate(err, "cycle")
		}
	}
	return nil
}

// aliveSleeper waits for duration, stop request cuts sleep short.
func aliveSleeper(a *alive.Alive, log *log2.Log) wifi.Sleeper {
	return wifi.SleeperFunc(func(d time.Duration, radioOff bool) error {
		log.Debugf("deep sleep %v radio_off=%t", d, radioOff)
		select {
		case <-time.After(d):
		case <-a.StopChan():
		}
		return nil
	})
}
