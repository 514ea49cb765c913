// internal/publish/health.go
package publish

import "time"

// Health is the acquisition-side device state.
type Health uint8

const (
	HealthUnknown Health = iota
	HealthOK
	HealthError
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	}
	return "unknown"
}

// HealthSnapshot is exactly what a sink is allowed to deliver about device
// health: current state, last error text, and when the state was entered.
type HealthSnapshot struct {
	State     Health
	LastError string
	Since     time.Time
}

// HealthSink is implemented by sinks that also carry health transitions,
// e.g. a retained broker topic.
type HealthSink interface {
	PublishHealth(hs HealthSnapshot) error
}
