// internal/regmap/flags.go
package regmap

import "strings"

// Flags is the set of per-channel error conditions reported alongside a
// conversion result.
type Flags uint8

const (
	// FlagAmplitudeLow reports sensor oscillation amplitude below the
	// monitored threshold.
	FlagAmplitudeLow Flags = 1 << iota

	// FlagAmplitudeHigh reports sensor oscillation amplitude above the
	// monitored threshold.
	FlagAmplitudeHigh

	// FlagWatchdogTimeout reports that the conversion watchdog expired
	// before the sensor oscillated, or that a reading never became ready.
	FlagWatchdogTimeout

	// FlagUnderRange reports a conversion below the valid output range.
	FlagUnderRange

	// FlagOverRange reports a conversion above the valid output range.
	FlagOverRange
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlagAmplitudeLow, "amplitude_low"},
	{FlagAmplitudeHigh, "amplitude_high"},
	{FlagWatchdogTimeout, "watchdog_timeout"},
	{FlagUnderRange, "under_range"},
	{FlagOverRange, "over_range"},
}

// Has reports whether all flags in q are set.
func (fl Flags) Has(q Flags) bool {
	return fl&q == q
}

// Strings returns the set as sorted wire-format names.
func (fl Flags) Strings() []string {
	var out []string
	for _, e := range flagNames {
		if fl&e.f != 0 {
			out = append(out, e.name)
		}
	}
	return out
}

func (fl Flags) String() string {
	if fl == 0 {
		return "none"
	}
	return strings.Join(fl.Strings(), "|")
}
