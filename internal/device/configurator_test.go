// internal/device/configurator_test.go
package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/evm-logger/internal/regmap"
)

type regWrite struct {
	addr  uint8
	value uint16
}

// fakeTransport is a register file backed by a map. Reads return whatever
// was last written, so verification passes unless corruptAddr is set.
type fakeTransport struct {
	regs        map[uint8]uint16
	writes      []regWrite
	corruptAddr uint8
	corrupt     bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{regs: map[uint8]uint16{
		regmap.RegManufacturerID: regmap.ManufacturerTI,
		regmap.RegDeviceID:       regmap.DeviceID28Bit,
	}}
}

func (f *fakeTransport) ReadRegister(addr uint8) (uint16, error) {
	v := f.regs[addr]
	if f.corrupt && addr == f.corruptAddr {
		v ^= 0xFFFF
	}
	return v, nil
}

func (f *fakeTransport) WriteRegister(addr uint8, value uint16) error {
	f.regs[addr] = value
	f.writes = append(f.writes, regWrite{addr: addr, value: value})
	return nil
}

func (f *fakeTransport) ReadBurst(start uint8, count int) ([]uint16, error) {
	out := make([]uint16, 0, count)
	for i := 0; i < count; i++ {
		v, _ := f.ReadRegister(start + uint8(i))
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeTransport) Close() error { return nil }

func twoChannels() []ChannelConfig {
	return []ChannelConfig{
		{
			Index: 0, Enabled: true,
			ConversionTime: 0xFFFF, SettleCount: 0x1000,
			FinDivider: 1, FrefDivider: 1,
			DriveCurrent: 9, Deglitch: regmap.Deglitch10MHz,
		},
		{
			Index: 1, Enabled: true,
			ConversionTime: 0xFFFF, SettleCount: 0x1000,
			FinDivider: 1, FrefDivider: 1,
			DriveCurrent: 9, Deglitch: regmap.Deglitch10MHz,
		},
	}
}

func TestConfigure_WriteSequence(t *testing.T) {
	tr := newFakeTransport()
	c := New(tr, regmap.LDC1614(), true)

	require.NoError(t, c.Configure(twoChannels()))
	require.NotEmpty(t, tr.writes)

	// Soft reset first, sleep entry second, wake-up CONFIG last.
	require.Equal(t, regmap.RegResetDev, tr.writes[0].addr)
	require.Equal(t, uint16(0x8000), tr.writes[0].value)

	require.Equal(t, regmap.RegConfig, tr.writes[1].addr)
	require.NotZero(t, tr.writes[1].value&0x2000, "sleep bit must be set on entry")

	last := tr.writes[len(tr.writes)-1]
	require.Equal(t, regmap.RegConfig, last.addr)
	// External clock, R_p override, auto-amplitude disabled, sleep cleared.
	require.Equal(t, uint16(0x1E01), last.value)

	// Conversion parameters landed on both channels.
	require.Equal(t, uint16(0xFFFF), tr.regs[0x08])
	require.Equal(t, uint16(0xFFFF), tr.regs[0x09])
	require.Equal(t, uint16(0x1000), tr.regs[0x10])
	require.Equal(t, uint16(0x1001), tr.regs[0x14])
	require.Equal(t, uint16(9)<<11, tr.regs[0x1E])
}

func TestConfigure_MuxAutoscan(t *testing.T) {
	tr := newFakeTransport()
	c := New(tr, regmap.LDC1614(), false)

	require.NoError(t, c.Configure(twoChannels()))

	// Autoscan ch0-ch1, reserved pattern, 10 MHz deglitch.
	require.Equal(t, uint16(0x820D), tr.regs[regmap.RegMuxConfig])
}

func TestConfigure_SingleChannelNoAutoscan(t *testing.T) {
	tr := newFakeTransport()
	c := New(tr, regmap.LDC1614(), false)

	chans := twoChannels()
	chans[1].Enabled = false
	require.NoError(t, c.Configure(chans))

	require.Zero(t, tr.regs[regmap.RegMuxConfig]&0x8000, "autoscan must stay off")
}

func TestConfigure_ReadbackMismatch(t *testing.T) {
	tr := newFakeTransport()
	tr.corrupt = true
	tr.corruptAddr = regmap.RegMuxConfig
	c := New(tr, regmap.LDC1614(), true)

	err := c.Configure(twoChannels())
	require.Error(t, err)

	var cr *ConfigRejectedError
	require.True(t, errors.As(err, &cr))
	require.Equal(t, "MUX_CONFIG", cr.Register)
	require.NotEqual(t, cr.Expected, cr.Actual)
}

func TestConfigure_MismatchIgnoredWithoutVerify(t *testing.T) {
	tr := newFakeTransport()
	tr.corrupt = true
	tr.corruptAddr = regmap.RegMuxConfig
	c := New(tr, regmap.LDC1614(), false)

	require.NoError(t, c.Configure(twoChannels()))
}

func TestConfigure_RejectsBadChannelSets(t *testing.T) {
	c := New(newFakeTransport(), regmap.LDC1612(), false)

	// Index beyond a 2-channel part.
	err := c.Configure([]ChannelConfig{{Index: 2, Enabled: true}})
	require.Error(t, err)

	// Duplicate index.
	err = c.Configure([]ChannelConfig{
		{Index: 0, Enabled: true, Deglitch: regmap.Deglitch10MHz},
		{Index: 0, Enabled: true, Deglitch: regmap.Deglitch10MHz},
	})
	require.Error(t, err)

	// Nothing enabled.
	err = c.Configure([]ChannelConfig{{Index: 0}})
	require.Error(t, err)

	// Conflicting deglitch filters.
	err = c.Configure([]ChannelConfig{
		{Index: 0, Enabled: true, Deglitch: regmap.Deglitch10MHz},
		{Index: 1, Enabled: true, Deglitch: regmap.Deglitch33MHz},
	})
	require.Error(t, err)
}

func TestIdentify(t *testing.T) {
	tr := newFakeTransport()
	c := New(tr, regmap.LDC1614(), false)

	man, dev, err := c.Identify()
	require.NoError(t, err)
	require.Equal(t, regmap.ManufacturerTI, man)
	require.Equal(t, regmap.DeviceID28Bit, dev)

	tr.regs[regmap.RegDeviceID] = 0x3054
	_, _, err = c.Identify()
	require.Error(t, err)
}
