// Separate package is workaround to import cycles.
package wifi_config

import (
	"time"

	"github.com/easygraphs/easygraphs-device/helpers"
	"github.com/juju/errors"
)

const (
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultFallbackPolls = 100 // ~5s with default interval
	DefaultGiveUpPolls   = 300 // ~15s from start
	DefaultSleep         = 5 * time.Second
	DefaultSettle        = 10 * time.Millisecond
)

type Config struct { //nolint:maligned
	SSID          string `hcl:"ssid"`
	Password      string `hcl:"password"` // secret
	PollMs        int    `hcl:"poll_ms"`
	FallbackPolls int    `hcl:"fallback_polls"`
	GiveUpPolls   int    `hcl:"giveup_polls"`
	SleepSec      int    `hcl:"sleep_sec"`
	SettleMs      int    `hcl:"settle_ms"`
	LogDebug      bool   `hcl:"log_debug"`
}

func (c *Config) PollInterval() time.Duration {
	return helpers.IntMillisecondDefault(c.PollMs, DefaultPollInterval)
}

func (c *Config) SettleDelay() time.Duration {
	return helpers.IntMillisecondDefault(c.SettleMs, DefaultSettle)
}

func (c *Config) SleepDuration() time.Duration {
	return helpers.IntSecondDefault(c.SleepSec, DefaultSleep)
}

func (c *Config) Fallback() int {
	if c.FallbackPolls == 0 {
		return DefaultFallbackPolls
	}
	return c.FallbackPolls
}

func (c *Config) GiveUp() int {
	if c.GiveUpPolls == 0 {
		return DefaultGiveUpPolls
	}
	return c.GiveUpPolls
}

func (c *Config) Validate() error {
	if c.PollMs < 0 || c.FallbackPolls < 0 || c.GiveUpPolls < 0 || c.SleepSec < 0 || c.SettleMs < 0 {
		return errors.NotValidf("wifi config negative value")
	}
	if c.GiveUp() <= c.Fallback() {
		return errors.NotValidf("wifi config giveup_polls=%d must be greater than fallback_polls=%d", c.GiveUp(), c.Fallback())
	}
	return nil
}
