//go:build tinygo
// +build tinygo

// Package netlinkradio adapts tinygo.org/x/drivers netlink devices
// (wifinina, rtl8720dn, cyw43439 and friends) to wifi.Radio.
//
// netlink does not expose channel or BSSID, so BeginFast is a regular
// connect and Manager never caches radio state with these chips.
package netlinkradio

import (
	"net"
	"sync"

	"github.com/easygraphs/easygraphs-device/radiostate"
	"github.com/easygraphs/easygraphs-device/wifi"
	"tinygo.org/x/drivers/netlink"
)

type Radio struct {
	mu     sync.Mutex
	link   netlink.Netlinker
	status wifi.Status
	mode   wifi.Mode
	// IPFunc reports assigned address when the network stack knows it.
	IPFunc func() net.IP
}

var _ wifi.Radio = &Radio{} // compile-time interface test

func New(link netlink.Netlinker) *Radio {
	r := &Radio{link: link, status: wifi.StatusDisconnected}
	link.NetNotify(r.onEvent)
	return r
}

func (r *Radio) onEvent(e netlink.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e {
	case netlink.EventNetUp:
		r.status = wifi.StatusConnected
	case netlink.EventNetDown:
		r.status = wifi.StatusConnectionLost
	}
}

// Begin blocks inside driver until associated or failed,
// Manager polling then sees final status immediately.
func (r *Radio) Begin(ssid, pass string) error {
	r.mu.Lock()
	if r.mode != wifi.ModeStation {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	err := r.link.NetConnect(&netlink.ConnectParams{
		Ssid:       ssid,
		Passphrase: pass,
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.status = wifi.StatusConnectFailed
		return err
	}
	r.status = wifi.StatusConnected
	return nil
}

func (r *Radio) BeginFast(ssid, pass string, channel uint8, bssid radiostate.BSSID) error {
	return r.Begin(ssid, pass)
}

func (r *Radio) Disconnect() error {
	r.link.NetDisconnect()
	r.mu.Lock()
	r.status = wifi.StatusDisconnected
	r.mu.Unlock()
	return nil
}

func (r *Radio) SetMode(m wifi.Mode) error {
	r.mu.Lock()
	r.mode = m
	r.mu.Unlock()
	return nil
}

func (r *Radio) ForceSleep() error { return nil }
func (r *Radio) ForceWake() error  { return nil }

func (r *Radio) Status() wifi.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Radio) Channel() uint8          { return 0 }
func (r *Radio) BSSID() radiostate.BSSID { return radiostate.BSSID{} }

func (r *Radio) LocalIP() net.IP {
	if r.IPFunc != nil {
		return r.IPFunc()
	}
	return nil
}
