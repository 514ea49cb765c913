// internal/transport/transport.go
package transport

import "errors"

// Transport is a register-addressable duplex channel to the device.
// It performs no protocol interpretation beyond register framing.
// All registers on the supported bridges are 16 bits wide.
type Transport interface {
	ReadRegister(addr uint8) (uint16, error)
	WriteRegister(addr uint8, value uint16) error

	// ReadBurst reads count consecutive registers starting at start.
	// Re-addressing per register dominates polling latency; a burst keeps
	// one call site per acquisition step.
	ReadBurst(start uint8, count int) ([]uint16, error)

	Close() error
}

// Streamer is the optional continuous-stream mode of the EVM bridge.
// Frames are raw bytes; decoding belongs to the caller.
type Streamer interface {
	StartStream() error
	StopStream() error
	ReadFrame() ([]byte, error)
}

// ErrTimeout reports that no bytes arrived within the configured timeout.
// Recoverable: the caller retries on a later cycle.
var ErrTimeout = errors.New("transport: timeout")

// ErrShortRead reports a partial response. Recoverable, but the in-flight
// frame must be discarded: realigning inside it risks plausible-but-wrong
// values.
var ErrShortRead = errors.New("transport: short read")

// ErrDisconnected reports that the channel is gone. Fatal for the session;
// the caller reconnects or terminates.
var ErrDisconnected = errors.New("transport: disconnected")
