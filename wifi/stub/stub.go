//go:build !tinygo && !baremetal
// +build !tinygo,!baremetal

// Package stub implements host side WiFi radio for tests and simulator.
// Access point is modeled by channel and BSSID; quick connect with
// different parameters never associates, like real chip with stale cache.
package stub

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/easygraphs/easygraphs-device/radiostate"
	"github.com/easygraphs/easygraphs-device/wifi"
)

type Call struct {
	Op      string
	SSID    string
	Pass    string
	Channel uint8
	BSSID   radiostate.BSSID
	Mode    wifi.Mode
}

func (c Call) String() string {
	switch c.Op {
	case "begin":
		return fmt.Sprintf("begin(%s)", c.SSID)
	case "begin-fast":
		return fmt.Sprintf("begin-fast(%s,%d,%s)", c.SSID, c.Channel, c.BSSID.String())
	case "mode":
		return fmt.Sprintf("mode(%s)", c.Mode.String())
	}
	return c.Op
}

type AccessPoint struct {
	SSID    string
	Pass    string
	Channel uint8
	BSSID   radiostate.BSSID
	Down    bool // never associates
}

type Radio struct {
	mu sync.Mutex

	AP AccessPoint
	// ConnectAfter is number of Status() calls after Begin* until association.
	ConnectAfter int
	IP           net.IP

	calls     []Call
	mode      wifi.Mode
	sleeping  bool
	status    wifi.Status
	countdown int
	joining   bool
}

var _ wifi.Radio = &Radio{} // compile-time interface test

func New(ap AccessPoint) *Radio {
	return &Radio{
		AP:           ap,
		ConnectAfter: 3,
		IP:           net.IPv4(192, 168, 4, 2),
		status:       wifi.StatusDisconnected,
	}
}

func (r *Radio) record(c Call) { r.calls = append(r.calls, c) }

func (r *Radio) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns call log in compact form, e.g. "begin-fast(net,6,aa:bb:cc:dd:ee:ff)".
func (r *Radio) Ops() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

func (r *Radio) ResetCalls() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *Radio) join(ssid, pass string, match bool) {
	r.status = wifi.StatusDisconnected
	r.joining = false
	switch {
	case r.mode != wifi.ModeStation || r.sleeping:
		// chip ignores begin while off
	case r.AP.Down || ssid != r.AP.SSID:
		r.status = wifi.StatusNoSSID
	case pass != r.AP.Pass:
		r.status = wifi.StatusWrongPassword
	case !match:
		// tuned to wrong channel or BSSID, stays disconnected
	default:
		r.joining = true
		r.countdown = r.ConnectAfter
	}
}

func (r *Radio) Begin(ssid, pass string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "begin", SSID: ssid, Pass: pass})
	r.join(ssid, pass, true)
	return nil
}

func (r *Radio) BeginFast(ssid, pass string, channel uint8, bssid radiostate.BSSID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "begin-fast", SSID: ssid, Pass: pass, Channel: channel, BSSID: bssid})
	r.join(ssid, pass, channel == r.AP.Channel && bssid == r.AP.BSSID)
	return nil
}

func (r *Radio) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "disconnect"})
	r.joining = false
	r.status = wifi.StatusDisconnected
	return nil
}

func (r *Radio) SetMode(m wifi.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "mode", Mode: m})
	r.mode = m
	if m == wifi.ModeOff {
		r.joining = false
		r.status = wifi.StatusDisconnected
	}
	return nil
}

func (r *Radio) ForceSleep() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "force-sleep"})
	r.sleeping = true
	r.joining = false
	r.status = wifi.StatusDisconnected
	return nil
}

func (r *Radio) ForceWake() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "force-wake"})
	r.sleeping = false
	return nil
}

func (r *Radio) Status() wifi.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joining {
		if r.countdown <= 0 {
			r.joining = false
			r.status = wifi.StatusConnected
		} else {
			r.countdown--
		}
	}
	return r.status
}

func (r *Radio) Channel() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != wifi.StatusConnected {
		return 0
	}
	return r.AP.Channel
}

func (r *Radio) BSSID() radiostate.BSSID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != wifi.StatusConnected {
		return radiostate.BSSID{}
	}
	return r.AP.BSSID
}

func (r *Radio) LocalIP() net.IP {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != wifi.StatusConnected {
		return nil
	}
	return r.IP
}

// Sleeper records deep sleep requests and returns immediately.
type Sleeper struct {
	mu       sync.Mutex
	Requests []SleepRequest
}

type SleepRequest struct {
	Duration time.Duration
	RadioOff bool
}

var _ wifi.Sleeper = &Sleeper{} // compile-time interface test

func (s *Sleeper) DeepSleep(d time.Duration, radioOff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, SleepRequest{Duration: d, RadioOff: radioOff})
	return nil
}

// Clock counts and sums delays without waiting.
type Clock struct {
	mu    sync.Mutex
	Calls int
	Total time.Duration
}

var _ wifi.Clock = &Clock{} // compile-time interface test

func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.Calls++
	c.Total += d
	c.mu.Unlock()
}
