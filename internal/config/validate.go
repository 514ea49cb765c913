// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/evm-logger/internal/regmap"
)

// DeglitchCode maps a config filter name to its MUX_CONFIG code.
func DeglitchCode(name string) (uint16, bool) {
	switch name {
	case "1mhz":
		return regmap.Deglitch1MHz, true
	case "3.3mhz":
		return regmap.Deglitch3M3Hz, true
	case "10mhz":
		return regmap.Deglitch10MHz, true
	case "33mhz":
		return regmap.Deglitch33MHz, true
	}
	return 0, false
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	lc := cfg.Logger

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if lc.Device.Port == "" {
		return fmt.Errorf("device: port is required")
	}
	if lc.Device.Baud < 0 {
		return fmt.Errorf("device: baud must be >= 0, got %d", lc.Device.Baud)
	}
	rm, err := regmap.ForFamily(lc.Device.Family)
	if err != nil {
		return fmt.Errorf("device: family %q: must be one of %v", lc.Device.Family, regmap.Families())
	}
	if lc.Device.TimeoutMs < 0 {
		return fmt.Errorf("device: timeout_ms must be >= 0, got %d", lc.Device.TimeoutMs)
	}

	// ------------------------------------------------------------
	// CHANNELS
	// ------------------------------------------------------------

	if len(lc.Channels) == 0 {
		return fmt.Errorf("channels: at least one channel is required")
	}

	seen := make(map[int]bool)
	enabledDeglitch := ""
	anyEnabled := false

	for _, ch := range lc.Channels {
		if ch.Index < 0 || ch.Index >= rm.Channels {
			return fmt.Errorf(
				"channels: index %d out of range for %s (%d channels)",
				ch.Index, rm.Family, rm.Channels,
			)
		}
		if seen[ch.Index] {
			return fmt.Errorf("channels: duplicate index %d", ch.Index)
		}
		seen[ch.Index] = true

		if ch.FinDivider > 0xF {
			return fmt.Errorf("channels: index %d: fin_divider %d exceeds 4 bits", ch.Index, ch.FinDivider)
		}
		if ch.FrefDivider > 0x3FF {
			return fmt.Errorf("channels: index %d: fref_divider %d exceeds 10 bits", ch.Index, ch.FrefDivider)
		}
		if ch.DriveCurrent > 0x1F {
			return fmt.Errorf("channels: index %d: drive_current %d exceeds 5 bits", ch.Index, ch.DriveCurrent)
		}

		if !ch.Enabled {
			continue
		}
		anyEnabled = true

		if ch.Deglitch != "" {
			if _, ok := DeglitchCode(ch.Deglitch); !ok {
				return fmt.Errorf("channels: index %d: unknown deglitch filter %q", ch.Index, ch.Deglitch)
			}
			if enabledDeglitch != "" && ch.Deglitch != enabledDeglitch {
				return fmt.Errorf(
					"channels: deglitch filter must match across enabled channels (%q vs %q)",
					enabledDeglitch, ch.Deglitch,
				)
			}
			enabledDeglitch = ch.Deglitch
		}
	}

	if !anyEnabled {
		return fmt.Errorf("channels: at least one channel must be enabled")
	}

	// ------------------------------------------------------------
	// ACQUISITION
	// ------------------------------------------------------------

	switch lc.Acquire.Mode {
	case "", "poll", "stream":
	default:
		return fmt.Errorf("acquire: mode %q: must be poll or stream", lc.Acquire.Mode)
	}
	if lc.Acquire.IntervalMs < 0 {
		return fmt.Errorf("acquire: interval_ms must be >= 0, got %d", lc.Acquire.IntervalMs)
	}
	if lc.Acquire.ConfigureRetries < 0 {
		return fmt.Errorf("acquire: configure_retries must be >= 0")
	}
	if lc.Acquire.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("acquire: reconnect_max_attempts must be >= 0")
	}

	// ------------------------------------------------------------
	// SINKS
	// ------------------------------------------------------------

	if lc.Sinks.QueueSize < 0 {
		return fmt.Errorf("sinks: queue_size must be >= 0")
	}
	if !lc.Sinks.Log.Enabled && lc.Sinks.MQTT == nil {
		return fmt.Errorf("sinks: at least one sink must be configured")
	}
	if m := lc.Sinks.MQTT; m != nil {
		if m.Broker == "" {
			return fmt.Errorf("sinks: mqtt: broker is required")
		}
		if m.Topic == "" {
			return fmt.Errorf("sinks: mqtt: topic is required")
		}
	}

	return nil
}
