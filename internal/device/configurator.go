// internal/device/configurator.go
package device

import (
	"errors"
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/tamzrod/evm-logger/internal/regmap"
	"github.com/tamzrod/evm-logger/internal/transport"
)

// ChannelConfig holds the per-channel conversion parameters.
// Immutable once Configure has applied it.
type ChannelConfig struct {
	Index   int
	Enabled bool

	ConversionTime uint16 // RCOUNT
	SettleCount    uint16
	FinDivider     uint16
	FrefDivider    uint16
	DriveCurrent   uint16 // IDRIVE code

	// Deglitch is the input filter code. The part applies one filter for
	// all channels; Configure rejects inconsistent values.
	Deglitch uint16
}

// Configurator sequences register writes to bring the device into a known
// multi-channel sampling mode.
type Configurator struct {
	tr     transport.Transport
	rm     *regmap.Map
	verify bool
}

// New creates a configurator. With verify set, every configuration write is
// read back and compared against the intended value.
func New(tr transport.Transport, rm *regmap.Map, verify bool) *Configurator {
	return &Configurator{tr: tr, rm: rm, verify: verify}
}

// ConfigRejectedError reports a readback mismatch after a verified write.
// A mismatch means the device will produce misleading samples; it is never
// silently ignored.
type ConfigRejectedError struct {
	Register string
	Addr     uint8
	Expected uint16
	Actual   uint16
}

func (e *ConfigRejectedError) Error() string {
	return fmt.Sprintf("device: %s (0x%02X) readback mismatch: wrote 0x%04X read 0x%04X",
		e.Register, e.Addr, e.Expected, e.Actual)
}

// Identify reads and checks the identity registers against the family map.
func (c *Configurator) Identify() (manufacturer, deviceID uint16, err error) {
	manufacturer, err = c.tr.ReadRegister(regmap.RegManufacturerID)
	if err != nil {
		return 0, 0, fmt.Errorf("device: read manufacturer id: %w", err)
	}
	deviceID, err = c.tr.ReadRegister(regmap.RegDeviceID)
	if err != nil {
		return 0, 0, fmt.Errorf("device: read device id: %w", err)
	}

	if manufacturer != c.rm.ManufacturerID || deviceID != c.rm.DeviceID {
		return manufacturer, deviceID, fmt.Errorf(
			"device: identity mismatch for %s: manufacturer=0x%04X device=0x%04X (want 0x%04X/0x%04X)",
			c.rm.Family, manufacturer, deviceID, c.rm.ManufacturerID, c.rm.DeviceID)
	}

	glog.Infof("device: identified %s manufacturer=0x%04X device=0x%04X",
		c.rm.Family, manufacturer, deviceID)
	return manufacturer, deviceID, nil
}

// Configure applies the channel set. Sequence: soft reset, sleep mode entry,
// per-channel conversion parameters, error reporting, channel mux, then the
// CONFIG write that leaves sleep — last, so the device never converts with a
// half-written setup.
func (c *Configurator) Configure(channels []ChannelConfig) error {
	enabled, err := c.enabledIndexes(channels)
	if err != nil {
		return err
	}

	// Soft reset. Self-clearing, never verified.
	reset, err := c.rm.Encode(regmap.RegResetDev, map[string]uint16{"reset_dev": 1})
	if err != nil {
		return err
	}
	if err := c.tr.WriteRegister(regmap.RegResetDev, reset); err != nil {
		return fmt.Errorf("device: soft reset: %w", err)
	}

	sleepCfg, err := c.configValue(enabled[0], true)
	if err != nil {
		return err
	}
	if err := c.writeVerified(regmap.RegConfig, sleepCfg); err != nil {
		return err
	}

	for _, cc := range channels {
		if !cc.Enabled {
			continue
		}
		if err := c.writeVerified(c.rm.RCount(cc.Index), cc.ConversionTime); err != nil {
			return err
		}
		if err := c.writeVerified(c.rm.SettleCount(cc.Index), cc.SettleCount); err != nil {
			return err
		}
		dividers, err := c.rm.Encode(c.rm.ClockDividers(cc.Index), map[string]uint16{
			"fin_divider":  cc.FinDivider,
			"fref_divider": cc.FrefDivider,
		})
		if err != nil {
			return err
		}
		if err := c.writeVerified(c.rm.ClockDividers(cc.Index), dividers); err != nil {
			return err
		}
		drive, err := c.rm.Encode(c.rm.DriveCurrent(cc.Index), map[string]uint16{
			"idrive": cc.DriveCurrent,
		})
		if err != nil {
			return err
		}
		if err := c.writeVerified(c.rm.DriveCurrent(cc.Index), drive); err != nil {
			return err
		}
	}

	// Report every error condition on the data registers so the decoder
	// sees the flag nibble.
	errCfg, err := c.rm.Encode(regmap.RegErrorConfig, map[string]uint16{
		"ur_err2out": 1,
		"or_err2out": 1,
		"wd_err2out": 1,
		"ah_err2out": 1,
		"al_err2out": 1,
	})
	if err != nil {
		return err
	}
	if err := c.writeVerified(regmap.RegErrorConfig, errCfg); err != nil {
		return err
	}

	mux, err := c.muxValue(channels, enabled)
	if err != nil {
		return err
	}
	if err := c.writeVerified(regmap.RegMuxConfig, mux); err != nil {
		return err
	}

	// Leave sleep. Must be the final write.
	activeCfg, err := c.configValue(enabled[0], false)
	if err != nil {
		return err
	}
	if err := c.writeVerified(regmap.RegConfig, activeCfg); err != nil {
		return err
	}

	glog.Infof("device: configured %s channels=%v verify=%v", c.rm.Family, enabled, c.verify)
	return nil
}

// Sleep puts the device back into sleep mode. Used on clean shutdown.
func (c *Configurator) Sleep() error {
	raw, err := c.configValue(0, true)
	if err != nil {
		return err
	}
	return c.tr.WriteRegister(regmap.RegConfig, raw)
}

func (c *Configurator) enabledIndexes(channels []ChannelConfig) ([]int, error) {
	seen := make(map[int]bool)
	var enabled []int
	deglitch := uint16(0xFFFF)

	for _, cc := range channels {
		if cc.Index < 0 || cc.Index >= c.rm.Channels {
			return nil, fmt.Errorf("device: channel index %d out of range for %s (%d channels)",
				cc.Index, c.rm.Family, c.rm.Channels)
		}
		if seen[cc.Index] {
			return nil, fmt.Errorf("device: duplicate channel index %d", cc.Index)
		}
		seen[cc.Index] = true

		if !cc.Enabled {
			continue
		}
		enabled = append(enabled, cc.Index)
		if deglitch != 0xFFFF && cc.Deglitch != deglitch {
			return nil, errors.New("device: deglitch filter must match across enabled channels")
		}
		deglitch = cc.Deglitch
	}

	if len(enabled) == 0 {
		return nil, errors.New("device: at least one enabled channel required")
	}
	sort.Ints(enabled)
	return enabled, nil
}

// configValue builds the CONFIG register: external reference clock, R_p
// override, automatic amplitude correction disabled.
func (c *Configurator) configValue(activeChan int, sleep bool) (uint16, error) {
	vals := map[string]uint16{
		"active_chan":         uint16(activeChan),
		"rp_override_en":      1,
		"sensor_activate_sel": 1,
		"auto_amp_dis":        1,
		"ref_clk_src":         1,
		"reserved":            regmap.ConfigReserved,
	}
	if sleep {
		vals["sleep_mode_en"] = 1
	}
	return c.rm.Encode(regmap.RegConfig, vals)
}

func (c *Configurator) muxValue(channels []ChannelConfig, enabled []int) (uint16, error) {
	vals := map[string]uint16{
		"reserved": regmap.MuxReserved,
	}

	for _, cc := range channels {
		if cc.Enabled {
			vals["deglitch"] = cc.Deglitch
			break
		}
	}

	if len(enabled) > 1 {
		vals["autoscan_en"] = 1
		// The scan sequence always starts at channel 0 and runs through
		// the highest enabled channel.
		switch enabled[len(enabled)-1] {
		case 1:
			vals["rr_sequence"] = 0
		case 2:
			vals["rr_sequence"] = 1
		case 3:
			vals["rr_sequence"] = 2
		default:
			return 0, fmt.Errorf("device: autoscan requires channel 0..3, got %d", enabled[len(enabled)-1])
		}
	}

	return c.rm.Encode(regmap.RegMuxConfig, vals)
}

func (c *Configurator) writeVerified(addr uint8, value uint16) error {
	if err := c.tr.WriteRegister(addr, value); err != nil {
		return fmt.Errorf("device: write 0x%02X: %w", addr, err)
	}
	if !c.verify {
		return nil
	}

	actual, err := c.tr.ReadRegister(addr)
	if err != nil {
		return fmt.Errorf("device: readback 0x%02X: %w", addr, err)
	}
	if actual != value {
		name := fmt.Sprintf("0x%02X", addr)
		if reg, lookupErr := c.rm.Register(addr); lookupErr == nil {
			name = reg.Name
		}
		return &ConfigRejectedError{Register: name, Addr: addr, Expected: value, Actual: actual}
	}
	return nil
}
