package config

import (
	"testing"
	"time"

	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			assert.Equal(t, "http://api.easygraphs.io:4020/dataset/collections", c.Api.URL())
			assert.Equal(t, "ESP8266", c.Device.Name)
			assert.Equal(t, "ESP8266", c.Device.Type)
			assert.Equal(t, "Arduino", c.Device.Platform)
			assert.Equal(t, 0.0, c.Device.Longitude)
			assert.Equal(t, 50*time.Millisecond, c.Wifi.PollInterval())
			assert.Equal(t, 100, c.Wifi.Fallback())
			assert.Equal(t, 300, c.Wifi.GiveUp())
			assert.Equal(t, 5*time.Second, c.Wifi.SleepDuration())
			assert.Equal(t, "./tmp-easygraphs", c.Persist.Root)
		}, ""},

		{"full", `
api { server = "http://localhost" port = 8080 token = "abc" timeout_sec = 3 }
device { name = "greenhouse" platform = "TinyGo" longitude = 37.5 latitude = 55.75 debug = true }
wifi { ssid = "home" password = "secret" poll_ms = 100 fallback_polls = 50 giveup_polls = 150 sleep_sec = 60 }
persist { root = "/var/lib/eg" rtc_offset = 64 }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "http://localhost:8080/dataset/collections", c.Api.URL())
				assert.Equal(t, "abc", c.Api.Token)
				assert.Equal(t, 3*time.Second, c.Api.Timeout())
				assert.Equal(t, "greenhouse", c.Device.Name)
				assert.Equal(t, "ESP8266", c.Device.Type)
				assert.Equal(t, "TinyGo", c.Device.Platform)
				assert.Equal(t, 37.5, c.Device.Longitude)
				assert.Equal(t, 55.75, c.Device.Latitude)
				assert.True(t, c.Device.Debug)
				assert.Equal(t, "home", c.Wifi.SSID)
				assert.Equal(t, "secret", c.Wifi.Password)
				assert.Equal(t, 100*time.Millisecond, c.Wifi.PollInterval())
				assert.Equal(t, 50, c.Wifi.Fallback())
				assert.Equal(t, 150, c.Wifi.GiveUp())
				assert.Equal(t, time.Minute, c.Wifi.SleepDuration())
				assert.Equal(t, "/var/lib/eg", c.Persist.Root)
				assert.Equal(t, 64, c.Persist.RtcOffset)
			}, ""},

		{"include-optional", `
include "wifi-home" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "home", c.Wifi.SSID)
			}, ""},

		{"include-overwrites", `
wifi { ssid = "office" }
include "wifi-home" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "home", c.Wifi.SSID)
			}, ""},

		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-required", `include "non-exist" {}`, nil, "config required name=non-exist path=non-exist not found"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
		{"error-wifi-thresholds", `wifi { fallback_polls = 300 giveup_polls = 200 }`, nil, "must be greater than fallback_polls=300"},
		{"error-api-server", `api { server = "api.easygraphs.io" }`, nil, "must start with http://"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"wifi-home":    `wifi { ssid = "home" }`,
				"include-loop": `include "include-loop" {}`,
			})
			config, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				require.NoError(t, err)
				require.NotNil(t, config)
				if c.check != nil {
					c.check(t, config)
				}
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.expectErr)
			}
		}
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, mkCheck(c))
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{EnvToken: "from-env", EnvWifiPassword: "wifi-env"}
	c := &Config{}
	c.Wifi.Password = "from-file"
	c.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "from-env", c.Api.Token)
	assert.Equal(t, "from-file", c.Wifi.Password, "file value wins")
}
