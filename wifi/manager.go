package wifi

import (
	"net"
	"time"

	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/radiostate"
	wifi_config "github.com/easygraphs/easygraphs-device/wifi/config"
	"github.com/juju/errors"
)

// ErrGaveUp is the cause of Connect error after give up deep sleep returned.
// On device that never happens, wake restarts from reset.
var ErrGaveUp = errors.New("wifi connect gave up")

// Manager contract:
// - Connect blocks until associated or gave up, there is no cancel
// - cached radio state is trusted for quick connect, stale cache costs one fallback
// - radio state is written only after successful association
// - not safe for concurrent use, single owner of radio and cache
type Manager struct {
	radio   Radio
	cache   *radiostate.Cache
	sleeper Sleeper
	clock   Clock
	log     *log2.Log

	pollInterval  time.Duration
	settleDelay   time.Duration
	sleepDuration time.Duration
	fallbackPolls int
	giveUpPolls   int
}

type Result struct {
	IP       net.IP
	Channel  uint8
	BSSID    radiostate.BSSID
	Quick    bool // started with cached channel and BSSID
	FellBack bool // quick path timed out, regular connect was issued
	Polls    int
}

// attempt lives for one Connect call
type attempt struct {
	ssid     string
	pass     string
	polls    int
	quick    bool
	fellBack bool
}

func NewManager(radio Radio, cache *radiostate.Cache, sleeper Sleeper, config wifi_config.Config, log *log2.Log) (*Manager, error) {
	if radio == nil || cache == nil || sleeper == nil {
		panic("code error wifi.NewManager radio, cache and sleeper are required")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Annotate(err, "wifi manager")
	}
	m := &Manager{
		radio:         radio,
		cache:         cache,
		sleeper:       sleeper,
		clock:         RealClock(),
		log:           log,
		pollInterval:  config.PollInterval(),
		settleDelay:   config.SettleDelay(),
		sleepDuration: config.SleepDuration(),
		fallbackPolls: config.Fallback(),
		giveUpPolls:   config.GiveUp(),
	}
	if config.LogDebug {
		m.log = log.Clone(log2.LDebug)
	}
	return m, nil
}

// SetClock replaces delays source, tests use it to skip real waiting.
func (m *Manager) SetClock(c Clock) { m.clock = c }

func (m *Manager) Connect(ssid, pass string) (Result, error) {
	a := attempt{ssid: ssid, pass: pass}
	m.log.Infof("wifi connect ssid=%s", ssid)

	m.cleanSlate()
	m.begin(&a)

	for {
		status := m.radio.Status()
		if status == StatusConnected {
			break
		}
		a.polls++
		if a.polls == m.fallbackPolls && a.quick && !a.fellBack {
			m.fallback(&a, status)
		}
		if a.polls == m.giveUpPolls {
			return Result{Quick: a.quick, FellBack: a.fellBack, Polls: a.polls}, m.giveUp(&a, status)
		}
		m.clock.Sleep(m.pollInterval)
	}

	return m.connected(&a), nil
}

// cleanSlate puts radio into known state regardless of what firmware or
// previous wake left behind.
func (m *Manager) cleanSlate() {
	m.check("disconnect", m.radio.Disconnect())
	m.check("mode off", m.radio.SetMode(ModeOff))
	m.check("force sleep", m.radio.ForceSleep())
	m.clock.Sleep(m.settleDelay)
	m.check("force wake", m.radio.ForceWake())
	m.clock.Sleep(m.settleDelay)
	m.check("mode station", m.radio.SetMode(ModeStation))
}

func (m *Manager) begin(a *attempt) {
	state, ok := m.cache.Load()
	if ok {
		a.quick = true
		m.log.Debugf("wifi quick connect %s", state.String())
		if err := m.radio.BeginFast(a.ssid, a.pass, state.Channel, state.BSSID); err != nil {
			m.log.Errorf("wifi quick connect begin err=%v", err)
		}
		return
	}
	m.log.Debugf("wifi regular connect, no valid radio state")
	m.check("begin", m.radio.Begin(a.ssid, a.pass))
}

func (m *Manager) fallback(a *attempt, status Status) {
	m.log.Infof("wifi quick connect timeout polls=%d status=%s, trying regular connect", a.polls, status.String())
	a.fellBack = true
	m.check("disconnect", m.radio.Disconnect())
	m.clock.Sleep(m.settleDelay)
	m.check("force sleep", m.radio.ForceSleep())
	m.clock.Sleep(m.settleDelay)
	m.check("force wake", m.radio.ForceWake())
	m.clock.Sleep(m.settleDelay)
	m.check("begin", m.radio.Begin(a.ssid, a.pass))
}

func (m *Manager) giveUp(a *attempt, status Status) error {
	m.log.Errorf("wifi connect ssid=%s gave up polls=%d status=%s quick=%t fallback=%t, deep sleep %v",
		a.ssid, a.polls, status.String(), a.quick, a.fellBack, m.sleepDuration)
	m.check("disconnect", m.radio.Disconnect())
	m.clock.Sleep(m.settleDelay)
	m.check("mode off", m.radio.SetMode(ModeOff))
	if err := m.sleeper.DeepSleep(m.sleepDuration, true); err != nil {
		m.log.Errorf("wifi deep sleep err=%v", err)
	}
	return errors.Annotatef(ErrGaveUp, "ssid=%s polls=%d", a.ssid, a.polls)
}

func (m *Manager) connected(a *attempt) Result {
	r := Result{
		IP:       m.radio.LocalIP(),
		Channel:  m.radio.Channel(),
		BSSID:    m.radio.BSSID(),
		Quick:    a.quick,
		FellBack: a.fellBack,
		Polls:    a.polls,
	}
	if r.Channel == 0 || r.BSSID.IsZero() {
		m.log.Debugf("wifi radio did not report channel=%d bssid=%s, radio state not saved", r.Channel, r.BSSID.String())
	} else if err := m.cache.Save(r.Channel, r.BSSID); err != nil {
		// next wake will do regular connect, not fatal
		m.log.Errorf("wifi %v", err)
	}
	m.log.Infof("wifi connected ip=%s channel=%d bssid=%s polls=%d quick=%t fallback=%t",
		r.IP, r.Channel, r.BSSID.String(), r.Polls, r.Quick, r.FellBack)
	return r
}

func (m *Manager) check(op string, err error) {
	if err != nil {
		m.log.Debugf("wifi radio %s err=%v", op, err)
	}
}

// Forget invalidates cached radio state, next Connect does regular scan.
func (m *Manager) Forget() error {
	return m.cache.Invalidate()
}
