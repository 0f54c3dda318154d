package main

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/easygraphs/easygraphs-device/config"
	"github.com/easygraphs/easygraphs-device/easygraphs"
	"github.com/easygraphs/easygraphs-device/helpers/cli"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/rtcmem"
	"github.com/easygraphs/easygraphs-device/wifi/stub"
	"github.com/juju/errors"
)

const replUsage = `commands:
- add NAME VALUE   buffer measurement
- publish          send buffered measurements
- error            show and clear last publish error
- connect          connect WiFi (quick if radio state is cached)
- forget           drop cached radio state
- ap up|down       simulated access point availability
- debug on|off     verbose logging
- pending          number of buffered measurements
`

var replSuggests = []prompt.Suggest{
	{Text: "add", Description: "add NAME VALUE"},
	{Text: "publish", Description: "send buffered measurements"},
	{Text: "error", Description: "show and clear last publish error"},
	{Text: "connect", Description: "connect WiFi"},
	{Text: "forget", Description: "drop cached radio state"},
	{Text: "ap", Description: "ap up|down"},
	{Text: "debug", Description: "debug on|off"},
	{Text: "pending", Description: "number of buffered measurements"},
	{Text: "help"},
}

type repl struct {
	ctx   context.Context
	log   *log2.Log
	c     *config.Config
	d     *easygraphs.Device
	radio *stub.Radio
}

func replMain(ctx context.Context, log *log2.Log, c *config.Config) error {
	if c.Wifi.SSID == "" {
		c.Wifi.SSID = simSSID
	}
	mem, err := rtcmem.NewFileMem(filepath.Join(c.Persist.Root, "rtc"), c.Persist.RtcSize, log)
	if err != nil {
		return errors.Annotate(err, "repl")
	}
	r := newRepl(ctx, log, c, mem)
	cli.MainLoop(log, "easygraphs", r.exec, cli.NewCompleter(replSuggests))
	return nil
}

func newRepl(ctx context.Context, log *log2.Log, c *config.Config, mem rtcmem.Memory) *repl {
	r := &repl{
		ctx:   ctx,
		log:   log,
		c:     c,
		radio: stub.New(stub.AccessPoint{SSID: c.Wifi.SSID, Pass: c.Wifi.Password, Channel: simChannel, BSSID: simBSSID}),
	}
	r.d = easygraphs.New("",
		easygraphs.WithConfig(c),
		easygraphs.WithLog(log),
		easygraphs.WithMemory(mem),
		easygraphs.WithRadio(r.radio),
		easygraphs.WithSleeper(aliveSleeper(getAlive(ctx), log)),
	)
	return r
}

func (r *repl) exec(line string) {
	if err := r.do(strings.Fields(line)); err != nil {
		r.log.Error(errors.ErrorStack(err))
	}
}

func (r *repl) do(words []string) error {
	if len(words) == 0 {
		return nil
	}
	cmd, args := words[0], words[1:]
	switch cmd {
	case "help":
		r.log.Info(replUsage)

	case "add":
		if len(args) != 2 {
			return errors.NotValidf("usage: add NAME VALUE")
		}
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return errors.Annotatef(err, "add value=%s", args[1])
		}
		if err := r.d.AddParameter(args[0], float32(v)); err != nil {
			return err
		}
		r.log.Infof("pending=%d", r.d.Pending())

	case "publish":
		if r.d.Publish(r.ctx) {
			r.log.Infof("published")
		} else {
			r.log.Infof("publish failed, see error")
		}

	case "error":
		e := r.d.GetError()
		r.log.Infof("error code=%d message=%s", e.Code, e.Message)

	case "connect":
		if err := r.d.InitWIFI(r.c.Wifi.SSID, r.c.Wifi.Password); err != nil {
			return err
		}
		res := r.d.Connection()
		r.log.Infof("connected ip=%s quick=%t fallback=%t polls=%d", res.IP, res.Quick, res.FellBack, res.Polls)

	case "forget":
		return r.d.ForgetWIFI()

	case "ap":
		if len(args) != 1 || (args[0] != "up" && args[0] != "down") {
			return errors.NotValidf("usage: ap up|down")
		}
		r.radio.AP.Down = args[0] == "down"

	case "debug":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return errors.NotValidf("usage: debug on|off")
		}
		r.d.Debug(args[0] == "on")

	case "pending":
		r.log.Infof("pending=%d", r.d.Pending())

	default:
		return errors.NotFoundf("command=%s, try help", cmd)
	}
	return nil
}
