// Separate package is workaround to import cycles.
package publish_config

import (
	"fmt"
	"strings"
	"time"

	"github.com/easygraphs/easygraphs-device/helpers"
	"github.com/juju/errors"
)

const (
	DefaultServer   = "http://api.easygraphs.io"
	DefaultPort     = 4020
	DefaultTimeout  = 10 * time.Second
	DefaultName     = "ESP8266"
	DefaultType     = "ESP8266"
	DefaultPlatform = "Arduino"

	CollectionsPath = "/dataset/collections"
)

type Config struct { //nolint:maligned
	Server     string `hcl:"server"`
	Port       int    `hcl:"port"`
	Token      string `hcl:"token"` // secret
	TimeoutSec int    `hcl:"timeout_sec"`
	LogDebug   bool   `hcl:"log_debug"`
}

// URL of collections endpoint, "{server}:{port}/dataset/collections".
func (c *Config) URL() string {
	server := c.Server
	if server == "" {
		server = DefaultServer
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d%s", strings.TrimRight(server, "/"), port, CollectionsPath)
}

func (c *Config) Timeout() time.Duration {
	return helpers.IntSecondDefault(c.TimeoutSec, DefaultTimeout)
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NotValidf("api port=%d", c.Port)
	}
	if c.TimeoutSec < 0 {
		return errors.NotValidf("api timeout_sec=%d", c.TimeoutSec)
	}
	if c.Server != "" && !strings.HasPrefix(c.Server, "http://") && !strings.HasPrefix(c.Server, "https://") {
		return errors.NotValidf("api server=%s must start with http:// or https://", c.Server)
	}
	return nil
}

// Device identity sent in Data-Device-* headers.
// Position defaults to 0,0 until set.
type Device struct {
	Name      string  `hcl:"name"`
	Type      string  `hcl:"type"`
	Platform  string  `hcl:"platform"`
	Longitude float64 `hcl:"longitude"`
	Latitude  float64 `hcl:"latitude"`
	Debug     bool    `hcl:"debug"`
}

func (d *Device) ApplyDefaults() {
	if d.Name == "" {
		d.Name = DefaultName
	}
	if d.Type == "" {
		d.Type = DefaultType
	}
	if d.Platform == "" {
		d.Platform = DefaultPlatform
	}
}
