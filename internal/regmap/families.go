// internal/regmap/families.go
package regmap

import "fmt"

// Register addresses shared by the LDC161x / FDC221x families.
// These values define the device protocol and MUST NOT be configurable.

// Per-channel registers: address = base + stride*channel.

// RegDataMSBBase is DATA_CH0 (upper word). Stride 2 per channel.
const RegDataMSBBase uint8 = 0x00

// RegDataLSBBase is DATA_LSB_CH0 (lower word). Stride 2 per channel.
const RegDataLSBBase uint8 = 0x01

// RegRCountBase is RCOUNT_CH0 (conversion time). Stride 1.
const RegRCountBase uint8 = 0x08

// RegOffsetBase is OFFSET_CH0 (conversion offset). Stride 1.
const RegOffsetBase uint8 = 0x0C

// RegSettleCountBase is SETTLECOUNT_CH0. Stride 1.
const RegSettleCountBase uint8 = 0x10

// RegClockDividersBase is CLOCK_DIVIDERS_CH0. Stride 1.
const RegClockDividersBase uint8 = 0x14

// RegDriveCurrentBase is DRIVE_CURRENT_CH0. Stride 1.
const RegDriveCurrentBase uint8 = 0x1E

// Global registers.

const (
	RegStatus         uint8 = 0x18
	RegErrorConfig    uint8 = 0x19
	RegConfig         uint8 = 0x1A
	RegMuxConfig      uint8 = 0x1B
	RegResetDev       uint8 = 0x1C
	RegManufacturerID uint8 = 0x7E
	RegDeviceID       uint8 = 0x7F
)

// Identity values. TI manufacturer ID reads "TI" in ASCII.
const (
	ManufacturerTI uint16 = 0x5449
	DeviceID28Bit  uint16 = 0x3055 // LDC1612/LDC1614, FDC2212/FDC2214
)

// Deglitch filter codes for MUX_CONFIG.deglitch.
const (
	Deglitch1MHz  uint16 = 0x1
	Deglitch3M3Hz uint16 = 0x4
	Deglitch10MHz uint16 = 0x5
	Deglitch33MHz uint16 = 0x7
)

// DataMSB returns the address of channel ch's upper data word.
func (m *Map) DataMSB(ch int) uint8 { return RegDataMSBBase + 2*uint8(ch) }

// DataLSB returns the address of channel ch's lower data word.
func (m *Map) DataLSB(ch int) uint8 { return RegDataLSBBase + 2*uint8(ch) }

// RCount returns the address of channel ch's conversion-time register.
func (m *Map) RCount(ch int) uint8 { return RegRCountBase + uint8(ch) }

// SettleCount returns the address of channel ch's settle-count register.
func (m *Map) SettleCount(ch int) uint8 { return RegSettleCountBase + uint8(ch) }

// ClockDividers returns the address of channel ch's divider register.
func (m *Map) ClockDividers(ch int) uint8 { return RegClockDividersBase + uint8(ch) }

// DriveCurrent returns the address of channel ch's drive-current register.
func (m *Map) DriveCurrent(ch int) uint8 { return RegDriveCurrentBase + uint8(ch) }

// ForFamily returns the static map for a supported device family.
func ForFamily(family string) (*Map, error) {
	switch family {
	case "ldc1612":
		return LDC1612(), nil
	case "ldc1614":
		return LDC1614(), nil
	case "fdc2212":
		return FDC2212(), nil
	case "fdc2214":
		return FDC2214(), nil
	}
	return nil, fmt.Errorf("regmap: unsupported device family %q", family)
}

// Families lists the supported family names.
func Families() []string {
	return []string{"ldc1612", "ldc1614", "fdc2212", "fdc2214"}
}

// LDC1612 is the 2-channel inductance-to-digital part.
func LDC1612() *Map { return newMap("ldc1612", 2, ldcFlagBits, ldcDataFields) }

// LDC1614 is the 4-channel inductance-to-digital part.
func LDC1614() *Map { return newMap("ldc1614", 4, ldcFlagBits, ldcDataFields) }

// FDC2212 is the 2-channel capacitance-to-digital part.
func FDC2212() *Map { return newMap("fdc2212", 2, fdcFlagBits, fdcDataFields) }

// FDC2214 is the 4-channel capacitance-to-digital part.
func FDC2214() *Map { return newMap("fdc2214", 4, fdcFlagBits, fdcDataFields) }

// Error nibble layout (data-MSB bits 15..12), pinned per family.
//
// LDC161x: under-range, over-range, watchdog, amplitude error. The part
// flags amplitude errors when oscillation exceeds the monitored window,
// reported here as amplitude-high.
var ldcFlagBits = [4]Flags{FlagUnderRange, FlagOverRange, FlagWatchdogTimeout, FlagAmplitudeHigh}

// FDC221x: amplitude-low warning, amplitude-high warning, watchdog,
// reserved (never set).
var fdcFlagBits = [4]Flags{FlagAmplitudeLow, FlagAmplitudeHigh, FlagWatchdogTimeout, 0}

var ldcDataFields = []Field{
	{Name: "err_ur", Offset: 15, Width: 1},
	{Name: "err_or", Offset: 14, Width: 1},
	{Name: "err_wd", Offset: 13, Width: 1},
	{Name: "err_ae", Offset: 12, Width: 1},
	{Name: "data", Offset: 0, Width: 12},
}

var fdcDataFields = []Field{
	{Name: "err_alw", Offset: 15, Width: 1},
	{Name: "err_ahw", Offset: 14, Width: 1},
	{Name: "err_wd", Offset: 13, Width: 1},
	{Name: "data", Offset: 0, Width: 12},
}

func newMap(family string, channels int, flagBits [4]Flags, dataFields []Field) *Map {
	m := &Map{
		Family:         family,
		Channels:       channels,
		ManufacturerID: ManufacturerTI,
		DeviceID:       DeviceID28Bit,
		regs:           make(map[uint8]*Register),
		flagBits:       flagBits,
	}

	add := func(r *Register) { m.regs[r.Addr] = r }

	for ch := 0; ch < channels; ch++ {
		add(&Register{
			Addr:   m.DataMSB(ch),
			Name:   fmt.Sprintf("DATA_CH%d_MSB", ch),
			Access: ReadOnly,
			Fields: dataFields,
		})
		add(&Register{
			Addr:   m.DataLSB(ch),
			Name:   fmt.Sprintf("DATA_CH%d_LSB", ch),
			Access: ReadOnly,
			Fields: []Field{{Name: "data", Offset: 0, Width: 16}},
		})
		add(&Register{
			Addr:    m.RCount(ch),
			Name:    fmt.Sprintf("RCOUNT_CH%d", ch),
			Access:  ReadWrite,
			Default: 0x0080,
			Fields:  []Field{{Name: "rcount", Offset: 0, Width: 16}},
		})
		add(&Register{
			Addr:   RegOffsetBase + uint8(ch),
			Name:   fmt.Sprintf("OFFSET_CH%d", ch),
			Access: ReadWrite,
			Fields: []Field{{Name: "offset", Offset: 0, Width: 16}},
		})
		add(&Register{
			Addr:   m.SettleCount(ch),
			Name:   fmt.Sprintf("SETTLECOUNT_CH%d", ch),
			Access: ReadWrite,
			Fields: []Field{{Name: "settle_count", Offset: 0, Width: 16}},
		})
		add(&Register{
			Addr:    m.ClockDividers(ch),
			Name:    fmt.Sprintf("CLOCK_DIVIDERS_CH%d", ch),
			Access:  ReadWrite,
			Default: 0x1001,
			Fields: []Field{
				{Name: "fin_divider", Offset: 12, Width: 4},
				{Name: "fref_divider", Offset: 0, Width: 10},
			},
		})
		add(&Register{
			Addr:   m.DriveCurrent(ch),
			Name:   fmt.Sprintf("DRIVE_CURRENT_CH%d", ch),
			Access: ReadWrite,
			Fields: []Field{
				{Name: "idrive", Offset: 11, Width: 5},
				{Name: "init_idrive", Offset: 6, Width: 5},
			},
		})
	}

	add(&Register{
		Addr:   RegStatus,
		Name:   "STATUS",
		Access: ReadOnly,
		Fields: []Field{
			{Name: "err_chan", Offset: 14, Width: 2},
			{Name: "err_ur", Offset: 13, Width: 1},
			{Name: "err_or", Offset: 12, Width: 1},
			{Name: "err_wd", Offset: 11, Width: 1},
			{Name: "err_ahe", Offset: 10, Width: 1},
			{Name: "err_ale", Offset: 9, Width: 1},
			{Name: "err_zc", Offset: 8, Width: 1},
			{Name: "drdy", Offset: 6, Width: 1},
			{Name: "unreadconv0", Offset: 3, Width: 1},
			{Name: "unreadconv1", Offset: 2, Width: 1},
			{Name: "unreadconv2", Offset: 1, Width: 1},
			{Name: "unreadconv3", Offset: 0, Width: 1},
		},
	})
	add(&Register{
		Addr:   RegErrorConfig,
		Name:   "ERROR_CONFIG",
		Access: ReadWrite,
		Fields: []Field{
			{Name: "ur_err2out", Offset: 15, Width: 1},
			{Name: "or_err2out", Offset: 14, Width: 1},
			{Name: "wd_err2out", Offset: 13, Width: 1},
			{Name: "ah_err2out", Offset: 12, Width: 1},
			{Name: "al_err2out", Offset: 11, Width: 1},
			{Name: "zc_err2out", Offset: 10, Width: 1},
			{Name: "wd_err2int", Offset: 5, Width: 1},
			{Name: "ah_err2int", Offset: 4, Width: 1},
			{Name: "al_err2int", Offset: 3, Width: 1},
			{Name: "zc_err2int", Offset: 2, Width: 1},
			{Name: "drdy_2int", Offset: 0, Width: 1},
		},
	})
	add(&Register{
		Addr:    RegConfig,
		Name:    "CONFIG",
		Access:  ReadWrite,
		Default: 0x2801,
		Fields: []Field{
			{Name: "active_chan", Offset: 14, Width: 2, Enum: map[uint16]string{
				0: "ch0", 1: "ch1", 2: "ch2", 3: "ch3",
			}},
			{Name: "sleep_mode_en", Offset: 13, Width: 1},
			{Name: "rp_override_en", Offset: 12, Width: 1},
			{Name: "sensor_activate_sel", Offset: 11, Width: 1},
			{Name: "auto_amp_dis", Offset: 10, Width: 1},
			{Name: "ref_clk_src", Offset: 9, Width: 1, Enum: map[uint16]string{
				0: "internal", 1: "external",
			}},
			{Name: "intb_dis", Offset: 7, Width: 1},
			{Name: "high_current_drv", Offset: 6, Width: 1},
			// Bits 5..0 must be written as 0b000001.
			{Name: "reserved", Offset: 0, Width: 6},
		},
	})
	add(&Register{
		Addr:    RegMuxConfig,
		Name:    "MUX_CONFIG",
		Access:  ReadWrite,
		Default: 0x020F,
		Fields: []Field{
			{Name: "autoscan_en", Offset: 15, Width: 1},
			{Name: "rr_sequence", Offset: 13, Width: 2, Enum: map[uint16]string{
				0: "ch0-ch1", 1: "ch0-ch2", 2: "ch0-ch3",
			}},
			// Bits 12..3 must be written as 0b0001000001.
			{Name: "reserved", Offset: 3, Width: 10},
			{Name: "deglitch", Offset: 0, Width: 3, Enum: map[uint16]string{
				Deglitch1MHz:  "1mhz",
				Deglitch3M3Hz: "3.3mhz",
				Deglitch10MHz: "10mhz",
				Deglitch33MHz: "33mhz",
			}},
		},
	})
	add(&Register{
		Addr:   RegResetDev,
		Name:   "RESET_DEV",
		Access: ReadWrite,
		Fields: []Field{{Name: "reset_dev", Offset: 15, Width: 1}},
	})
	add(&Register{
		Addr:    RegManufacturerID,
		Name:    "MANUFACTURER_ID",
		Access:  ReadOnly,
		Default: ManufacturerTI,
		Fields:  []Field{{Name: "id", Offset: 0, Width: 16}},
	})
	add(&Register{
		Addr:    RegDeviceID,
		Name:    "DEVICE_ID",
		Access:  ReadOnly,
		Default: DeviceID28Bit,
		Fields:  []Field{{Name: "id", Offset: 0, Width: 16}},
	})

	return m
}

// ConfigReserved and MuxReserved are the datasheet-mandated values for the
// reserved fields of CONFIG and MUX_CONFIG.
const (
	ConfigReserved uint16 = 0x01
	MuxReserved    uint16 = 0x41
)
