// internal/decoder/sample.go
package decoder

import (
	"sort"
	"time"

	"github.com/tamzrod/evm-logger/internal/regmap"
)

// Reading is one channel's decoded conversion result.
// Valid is false when the channel timed out this cycle; Flags then carries
// watchdog_timeout and Value is meaningless.
type Reading struct {
	Value uint32
	Valid bool
	Flags regmap.Flags
}

// Sample is one completed acquisition cycle across all enabled channels.
// Immutable once produced; ownership passes to the publisher.
type Sample struct {
	At       time.Time
	Readings map[int]Reading
}

// Channels returns the sampled channel indexes in ascending order.
func (s Sample) Channels() []int {
	out := make([]int, 0, len(s.Readings))
	for ch := range s.Readings {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}
