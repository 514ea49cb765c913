// internal/regmap/errors.go
package regmap

import "fmt"

// UnknownRegisterError reports a lookup for an address outside the family map.
type UnknownRegisterError struct {
	Family string
	Addr   uint8
}

func (e *UnknownRegisterError) Error() string {
	return fmt.Sprintf("regmap: %s has no register 0x%02X", e.Family, e.Addr)
}

// FieldRangeError reports an encode input wider than its target field.
type FieldRangeError struct {
	Register string
	Field    string
	Value    uint16
	Width    uint
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("regmap: value 0x%X does not fit field %s.%s (%d bits)",
		e.Value, e.Register, e.Field, e.Width)
}
