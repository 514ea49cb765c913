// internal/config/normalize.go
package config

import "sort"

// Conservative conversion defaults, known-good across the supported parts.
const (
	defaultBaud           = 115200
	defaultTimeoutMs      = 1000
	defaultIntervalMs     = 10
	defaultConversionTime = 0xFFFF
	defaultSettleCount    = 0x1000
	defaultDivider        = 1
	defaultDriveCurrent   = 9
	defaultDeglitch       = "10mhz"
	defaultReconnectMax   = 5
	defaultBackoffMs      = 250
	defaultQueueSize      = 64
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	lc := &cfg.Logger

	if lc.Device.Baud == 0 {
		lc.Device.Baud = defaultBaud
	}
	if lc.Device.TimeoutMs == 0 {
		lc.Device.TimeoutMs = defaultTimeoutMs
	}

	deglitch := defaultDeglitch
	for _, ch := range lc.Channels {
		if ch.Enabled && ch.Deglitch != "" {
			deglitch = ch.Deglitch
			break
		}
	}

	for i := range lc.Channels {
		ch := &lc.Channels[i]
		if ch.ConversionTime == 0 {
			ch.ConversionTime = defaultConversionTime
		}
		if ch.SettleCount == 0 {
			ch.SettleCount = defaultSettleCount
		}
		if ch.FinDivider == 0 {
			ch.FinDivider = defaultDivider
		}
		if ch.FrefDivider == 0 {
			ch.FrefDivider = defaultDivider
		}
		if ch.DriveCurrent == 0 {
			ch.DriveCurrent = defaultDriveCurrent
		}
		if ch.Deglitch == "" {
			ch.Deglitch = deglitch
		}
	}

	sort.Slice(lc.Channels, func(i, j int) bool {
		return lc.Channels[i].Index < lc.Channels[j].Index
	})

	if lc.Acquire.Mode == "" {
		lc.Acquire.Mode = "poll"
	}
	if lc.Acquire.IntervalMs == 0 {
		lc.Acquire.IntervalMs = defaultIntervalMs
	}
	if lc.Acquire.ReconnectMaxAttempts == 0 {
		lc.Acquire.ReconnectMaxAttempts = defaultReconnectMax
	}
	if lc.Acquire.ReconnectBackoffMs == 0 {
		lc.Acquire.ReconnectBackoffMs = defaultBackoffMs
	}

	if lc.Sinks.QueueSize == 0 {
		lc.Sinks.QueueSize = defaultQueueSize
	}
	if m := lc.Sinks.MQTT; m != nil && m.TimeoutMs == 0 {
		m.TimeoutMs = defaultTimeoutMs
	}
}
