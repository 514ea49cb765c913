// internal/regmap/regmap.go
package regmap

import "fmt"

// Access describes register read/write semantics on the wire.
type Access uint8

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// Field is one named bit field inside a 16-bit register.
// Offset counts from bit 0 (LSB). Fields within a register never overlap.
type Field struct {
	Name   string
	Offset uint
	Width  uint

	// Enum optionally names known raw patterns. Patterns outside the map
	// decode as "reserved", never as an error.
	Enum map[uint16]string
}

func (f Field) mask() uint16 {
	return uint16(1<<f.Width - 1)
}

// DecodeEnum names a raw field value. Total over all patterns.
func (f Field) DecodeEnum(v uint16) string {
	if name, ok := f.Enum[v]; ok {
		return name
	}
	return "reserved"
}

// Register describes one addressable 16-bit configuration register.
type Register struct {
	Addr    uint8
	Name    string
	Access  Access
	Default uint16
	Fields  []Field
}

// Decode splits a raw register value into its named fields.
// Total: every 16-bit pattern decodes; undeclared bits are dropped.
func (r *Register) Decode(raw uint16) map[string]uint16 {
	out := make(map[string]uint16, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Name] = (raw >> f.Offset) & f.mask()
	}
	return out
}

// Encode packs named field values into a raw register value.
// Missing fields encode as zero. A value wider than its field is rejected.
func (r *Register) Encode(vals map[string]uint16) (uint16, error) {
	known := make(map[string]bool, len(r.Fields))
	var raw uint16
	for _, f := range r.Fields {
		known[f.Name] = true
		v, ok := vals[f.Name]
		if !ok {
			continue
		}
		if v > f.mask() {
			return 0, &FieldRangeError{Register: r.Name, Field: f.Name, Value: v, Width: f.Width}
		}
		raw |= v << f.Offset
	}
	for name := range vals {
		if !known[name] {
			return 0, fmt.Errorf("regmap: register %s has no field %q", r.Name, name)
		}
	}
	return raw, nil
}

// Map is the static register map for one device family.
// Instances are process-wide constants; nothing here mutates after New.
type Map struct {
	Family   string
	Channels int

	// Expected identity registers, verified at startup.
	ManufacturerID uint16
	DeviceID       uint16

	regs map[uint8]*Register

	// flagBits maps the data-MSB error nibble to flags, index 0 = bit 15.
	// The layout is pinned per family; see families.go.
	flagBits [4]Flags
}

// Register looks up a descriptor by address.
func (m *Map) Register(addr uint8) (*Register, error) {
	r, ok := m.regs[addr]
	if !ok {
		return nil, &UnknownRegisterError{Family: m.Family, Addr: addr}
	}
	return r, nil
}

// Encode packs field values for the register at addr.
func (m *Map) Encode(addr uint8, vals map[string]uint16) (uint16, error) {
	r, err := m.Register(addr)
	if err != nil {
		return 0, err
	}
	return r.Encode(vals)
}

// Decode splits the raw value of the register at addr into named fields.
func (m *Map) Decode(addr uint8, raw uint16) (map[string]uint16, error) {
	r, err := m.Register(addr)
	if err != nil {
		return nil, err
	}
	return r.Decode(raw), nil
}

// DecodeFlags extracts the error flags from a data-MSB register value.
func (m *Map) DecodeFlags(msb uint16) Flags {
	var fl Flags
	for i, f := range m.flagBits {
		if msb&(1<<(15-uint(i))) != 0 {
			fl |= f
		}
	}
	return fl
}

// DataMask removes the error nibble from a data-MSB register value.
const DataMask uint16 = 0x0FFF

// UnreadMask returns the STATUS bit indicating channel ch has an
// unread conversion. Bit 3 is channel 0, bit 0 is channel 3.
func (m *Map) UnreadMask(ch int) uint16 {
	return 1 << uint(3-ch)
}
