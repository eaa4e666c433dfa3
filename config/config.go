// Package config carries the tunables of the device core. Defaults match
// the firmware's expectations; a TOML file can override individual fields.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// CallTimeout bounds one request/response exchange.
	CallTimeout time.Duration
	// BusyPollInterval and BusyPollMax bound the wait for the profile
	// section path to become free.
	BusyPollInterval time.Duration
	BusyPollMax      int
	// StatusGrace is the delay before the first status probe after a
	// device shows up; the firmware needs a moment after enumeration.
	StatusGrace      time.Duration
	StatusRetryDelay time.Duration
	StatusRetryMax   int
	// FetchRetryMax caps the generic retry wrapper around config and
	// section operations.
	FetchRetryMax int

	// USB identity of the controller family.
	VendorID          int
	ControllerProduct int
	DongleProduct     int

	LogFile string
	Verbose bool
}

func Default() *Config {
	return &Config{
		CallTimeout:      500 * time.Millisecond,
		BusyPollInterval: 100 * time.Millisecond,
		BusyPollMax:      10,
		StatusGrace:      500 * time.Millisecond,
		StatusRetryDelay: 250 * time.Millisecond,
		StatusRetryMax:   10,
		FetchRetryMax:    5,

		VendorID:          0x1209,
		ControllerProduct: 0x2882,
		DongleProduct:     0x2884,
	}
}

type fileConfig struct {
	CallTimeout      string `toml:"call_timeout"`
	BusyPollInterval string `toml:"busy_poll_interval"`
	BusyPollMax      int    `toml:"busy_poll_max"`
	StatusGrace      string `toml:"status_grace"`
	StatusRetryDelay string `toml:"status_retry_delay"`
	StatusRetryMax   int    `toml:"status_retry_max"`
	FetchRetryMax    int    `toml:"fetch_retry_max"`

	VendorID          int `toml:"vendor_id"`
	ControllerProduct int `toml:"controller_product"`
	DongleProduct     int `toml:"dongle_product"`

	LogFile string `toml:"log_file"`
	Verbose bool   `toml:"verbose"`
}

// Load reads a TOML file on top of the defaults. Only fields present in the
// file override.
func Load(path string) (*Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	durations := []struct {
		key string
		val string
		dst *time.Duration
	}{
		{"call_timeout", raw.CallTimeout, &cfg.CallTimeout},
		{"busy_poll_interval", raw.BusyPollInterval, &cfg.BusyPollInterval},
		{"status_grace", raw.StatusGrace, &cfg.StatusGrace},
		{"status_retry_delay", raw.StatusRetryDelay, &cfg.StatusRetryDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.val))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("busy_poll_max") {
		cfg.BusyPollMax = raw.BusyPollMax
	}
	if meta.IsDefined("status_retry_max") {
		cfg.StatusRetryMax = raw.StatusRetryMax
	}
	if meta.IsDefined("fetch_retry_max") {
		cfg.FetchRetryMax = raw.FetchRetryMax
	}
	if meta.IsDefined("vendor_id") {
		cfg.VendorID = raw.VendorID
	}
	if meta.IsDefined("controller_product") {
		cfg.ControllerProduct = raw.ControllerProduct
	}
	if meta.IsDefined("dongle_product") {
		cfg.DongleProduct = raw.DongleProduct
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}

	return cfg, nil
}
