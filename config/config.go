package config

import (
	"path/filepath"

	"github.com/easygraphs/easygraphs-device/helpers"
	"github.com/easygraphs/easygraphs-device/log2"
	publish_config "github.com/easygraphs/easygraphs-device/publish/config"
	wifi_config "github.com/easygraphs/easygraphs-device/wifi/config"
	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
)

const (
	EnvToken        = "EASYGRAPHS_TOKEN"
	EnvWifiPassword = "EASYGRAPHS_WIFI_PASSWORD"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Api    publish_config.Config `hcl:"api"`
	Device publish_config.Device `hcl:"device"`
	Wifi   wifi_config.Config    `hcl:"wifi"`

	Persist struct {
		Root string `hcl:"root"`
		// RTC memory slot of radio state record
		RtcOffset int `hcl:"rtc_offset"`
		RtcSize   int `hcl:"rtc_size"`
	} `hcl:"persist"`

	Collector struct {
		Listen string `hcl:"listen"`
		Token  string `hcl:"token"` // secret
		Keep   int    `hcl:"keep"`
	} `hcl:"collector"`
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		// content is not logged, it contains secrets
		err = errors.Annotatef(err, "config unmarshal source=%s", source.Name)
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Validate checks values and fills defaults.
func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if err := c.Api.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Wifi.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Persist.RtcOffset < 0 || c.Persist.RtcSize < 0 {
		errs = append(errs, errors.NotValidf("config persist rtc_offset=%d rtc_size=%d", c.Persist.RtcOffset, c.Persist.RtcSize))
	}
	c.Device.ApplyDefaults()
	if c.Persist.Root == "" {
		c.Persist.Root = "./tmp-easygraphs"
	}
	return helpers.FoldErrors(errs)
}

// ApplyEnv fills secrets missing in config files from environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Api.Token == "" {
		c.Api.Token = getenv(EnvToken)
	}
	if c.Wifi.Password == "" {
		c.Wifi.Password = getenv(EnvWifiPassword)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
