package wifi

import (
	"fmt"
	"net"
	"time"

	"github.com/easygraphs/easygraphs-device/radiostate"
)

// Status values match ESP8266 wl_status_t.
type Status int

const (
	StatusIdle           Status = 0
	StatusNoSSID         Status = 1
	StatusScanCompleted  Status = 2
	StatusConnected      Status = 3
	StatusConnectFailed  Status = 4
	StatusConnectionLost Status = 5
	StatusWrongPassword  Status = 6
	StatusDisconnected   Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusNoSSID:
		return "no-ssid"
	case StatusScanCompleted:
		return "scan-completed"
	case StatusConnected:
		return "connected"
	case StatusConnectFailed:
		return "connect-failed"
	case StatusConnectionLost:
		return "connection-lost"
	case StatusWrongPassword:
		return "wrong-password"
	case StatusDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Mode int

const (
	ModeOff Mode = iota
	ModeStation
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeStation:
		return "station"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Radio is the WiFi chip capability consumed by Manager.
// Begin* only start association, Status reports progress.
type Radio interface {
	Begin(ssid, pass string) error
	// BeginFast skips access point scan using known channel and BSSID.
	BeginFast(ssid, pass string, channel uint8, bssid radiostate.BSSID) error
	Disconnect() error
	SetMode(Mode) error
	ForceSleep() error
	ForceWake() error
	Status() Status
	Channel() uint8
	BSSID() radiostate.BSSID
	LocalIP() net.IP
}

// Sleeper enters low power sleep. On device DeepSleep never returns,
// execution restarts from reset vector on wake.
type Sleeper interface {
	DeepSleep(d time.Duration, radioOff bool) error
}

type SleeperFunc func(d time.Duration, radioOff bool) error

func (f SleeperFunc) DeepSleep(d time.Duration, radioOff bool) error { return f(d, radioOff) }

type Clock interface {
	Sleep(time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

func RealClock() Clock { return realClock{} }
