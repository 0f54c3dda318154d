// Package easygraphs is the device facing entry point: one value per
// device that owns measurement buffer, WiFi connection manager and publisher.
//
// Typical wake cycle:
//   d := easygraphs.New(token, easygraphs.WithRadio(radio))
//   d.InitWIFI(ssid, pass)
//   d.AddParameter("temperature", 21.5)
//   if !d.Publish(ctx) { log(d.GetError()) }
package easygraphs

import (
	"context"
	"net/http"
	"time"

	"github.com/easygraphs/easygraphs-device/collection"
	"github.com/easygraphs/easygraphs-device/config"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/publish"
	"github.com/easygraphs/easygraphs-device/radiostate"
	"github.com/easygraphs/easygraphs-device/rtcmem"
	"github.com/easygraphs/easygraphs-device/wifi"
	"github.com/juju/errors"
)

type PublishError = publish.PublishError

type Option func(*options)

type options struct {
	config    *config.Config
	radio     wifi.Radio
	mem       rtcmem.Memory
	sleeper   wifi.Sleeper
	clock     wifi.Clock
	log       *log2.Log
	transport http.RoundTripper
}

func WithConfig(c *config.Config) Option        { return func(o *options) { o.config = c } }
func WithRadio(r wifi.Radio) Option             { return func(o *options) { o.radio = r } }
func WithMemory(m rtcmem.Memory) Option         { return func(o *options) { o.mem = m } }
func WithSleeper(s wifi.Sleeper) Option         { return func(o *options) { o.sleeper = s } }
func WithClock(c wifi.Clock) Option             { return func(o *options) { o.clock = c } }
func WithLog(l *log2.Log) Option                { return func(o *options) { o.log = l } }
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.transport = rt } }

// Device contract:
// - identity setters affect next Publish
// - InitWIFI blocks, on give up device enters deep sleep (host: Sleeper returns, error reported)
// - single goroutine owner, like firmware loop()
type Device struct {
	Log *log2.Log

	config    config.Config
	coll      *collection.Collection
	publisher *publish.Publisher
	mem       rtcmem.Memory
	radio     wifi.Radio
	sleeper   wifi.Sleeper
	clock     wifi.Clock
	manager   *wifi.Manager
	result    wifi.Result
}

// New never fails on defaults. Invalid explicit config panics, validate
// it with config.ReadConfig first.
func New(token string, opts ...Option) *Device {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Device{
		coll:    collection.New(),
		mem:     o.mem,
		radio:   o.radio,
		sleeper: o.sleeper,
		clock:   o.clock,
	}
	if o.config != nil {
		d.config = *o.config
	}
	if err := d.config.Validate(); err != nil {
		panic("code error easygraphs.New invalid config: " + err.Error())
	}
	if token != "" {
		d.config.Api.Token = token
	}

	d.Log = o.log
	if d.Log == nil {
		d.Log = log2.NewStderr(log2.LInfo)
	}
	d.Log.SetLevel(log2.DebugLevel(d.config.Device.Debug))

	if d.mem == nil {
		size := d.config.Persist.RtcSize
		if size == 0 {
			size = rtcmem.DefaultSize
		}
		d.mem = rtcmem.NewMem(size)
	}
	if d.sleeper == nil {
		d.sleeper = wifi.SleeperFunc(hostDeepSleep)
	}

	var err error
	d.publisher, err = publish.NewPublisher(d.config.Api, publish.IdentityFromConfig(d.config.Device), d.coll, d.Log)
	if err != nil {
		panic("code error easygraphs.New " + err.Error())
	}
	if o.transport != nil {
		d.publisher.SetTransport(o.transport)
	}
	return d
}

func hostDeepSleep(d time.Duration, radioOff bool) error {
	time.Sleep(d)
	return nil
}

func (d *Device) Config() *config.Config { return &d.config }

// Debug toggles verbose logging of connect and publish steps.
func (d *Device) Debug(on bool) {
	d.config.Device.Debug = on
	d.Log.SetLevel(log2.DebugLevel(on))
}

func (d *Device) SetDeviceName(s string)       { d.publisher.Identity.Name = s }
func (d *Device) SetDeviceType(s string)       { d.publisher.Identity.Type = s }
func (d *Device) SetDevicePlatform(s string)   { d.publisher.Identity.Platform = s }
func (d *Device) SetDeviceLongitude(v float32) { d.publisher.Identity.Longitude = v }
func (d *Device) SetDeviceLatitude(v float32)  { d.publisher.Identity.Latitude = v }

func (d *Device) Identity() publish.Identity { return d.publisher.Identity }

// AddParameter buffers one measurement until next successful Publish.
func (d *Device) AddParameter(name string, value float32) error {
	if err := d.coll.Add(name, value); err != nil {
		d.Log.Debugf("add parameter name=%s err=%v", name, err)
		return err
	}
	return nil
}

func (d *Device) Pending() int { return d.coll.Len() }

// InitWIFI connects to access point, reusing radio state cached in RTC memory.
// Returned error has wifi.ErrGaveUp cause after give up deep sleep returned.
func (d *Device) InitWIFI(ssid, pass string) error {
	if d.radio == nil {
		return errors.NotValidf("easygraphs InitWIFI radio not configured")
	}
	if d.manager == nil {
		cache := radiostate.NewCache(d.mem, d.config.Persist.RtcOffset, d.Log)
		m, err := wifi.NewManager(d.radio, cache, d.sleeper, d.config.Wifi, d.Log)
		if err != nil {
			return errors.Annotate(err, "easygraphs InitWIFI")
		}
		if d.clock != nil {
			m.SetClock(d.clock)
		}
		d.manager = m
	}
	r, err := d.manager.Connect(ssid, pass)
	d.result = r
	if err != nil {
		return errors.Annotate(err, "easygraphs InitWIFI")
	}
	d.Log.Debugf("IP address: %s", r.IP)
	return nil
}

// Connection is the outcome of last InitWIFI.
func (d *Device) Connection() wifi.Result { return d.result }

// ForgetWIFI drops cached radio state, next InitWIFI scans.
func (d *Device) ForgetWIFI() error {
	cache := radiostate.NewCache(d.mem, d.config.Persist.RtcOffset, d.Log)
	return cache.Invalidate()
}

func (d *Device) Publish(ctx context.Context) bool { return d.publisher.Publish(ctx) }

// GetError returns last publish failure and forgets it.
func (d *Device) GetError() PublishError { return d.publisher.Error() }
