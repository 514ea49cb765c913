// internal/transport/evm/client.go
package evm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/tamzrod/evm-logger/internal/transport"
)

// Client implements transport.Transport over the TI EVM USB-serial bridge.
// This adapter is framing-only: it builds commands and unpacks raw
// responses; register semantics belong to the caller.
type Client struct {
	port    wire
	timeout time.Duration
}

// wire is the subset of the serial port the client uses.
type wire interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Config is minimal transport config.
type Config struct {
	Port    string
	Baud    int
	Timeout time.Duration
}

// Bridge command framing, fixed by the EVM firmware.
var (
	cmdWriteReg    = []byte{0x4C, 0x15, 0x01, 0x00, 0x04, 0x2A}
	cmdSetRegAddr  = []byte{0x4C, 0x15, 0x01, 0x00, 0x02, 0x2A}
	cmdReadReg     = []byte{0x4C, 0x14, 0x01, 0x00, 0x02, 0x2A, 0x02}
	cmdStartStream = []byte{0x4C, 0x05, 0x01, 0x00, 0x06, 0x01, 0x29, 0x04, 0x04, 0x30, 0x2A, 0xC1}
	cmdStopStream  = []byte{0x4C, 0x06, 0x01, 0x00, 0x01, 0x01, 0xD2}
)

// Every bridge response and stream frame is exactly 32 bytes.
const frameLen = 32

// Response layout: error code at byte 3, register value big-endian at 6..7.
const (
	respErrOffset   = 3
	respValueOffset = 6
)

// New opens the serial port and returns a connected client.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		return nil, errors.New("evm client: port required")
	}

	p, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("evm client: open %s: %w", cfg.Port, err)
	}
	if err := p.SetReadTimeout(cfg.Timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("evm client: set read timeout: %w", err)
	}

	return &Client{port: p, timeout: cfg.Timeout}, nil
}

// Close closes the serial port.
func (c *Client) Close() error {
	if c == nil || c.port == nil {
		return nil
	}
	return c.port.Close()
}

// BridgeError is a non-zero status code returned by the bridge firmware.
type BridgeError struct {
	Code byte
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("evm bridge: command failed with code 0x%02X", e.Code)
}

// ---- transport.Transport interface ----

func (c *Client) ReadRegister(addr uint8) (uint16, error) {
	// Two commands: point the bridge at the register, then read it.
	cmd := make([]byte, 0, len(cmdSetRegAddr)+1)
	cmd = append(cmd, cmdSetRegAddr...)
	cmd = append(cmd, addr)

	if _, err := c.roundTrip(cmd); err != nil {
		return 0, fmt.Errorf("evm client: set addr 0x%02X: %w", addr, err)
	}
	v, err := c.roundTrip(cmdReadReg)
	if err != nil {
		return 0, fmt.Errorf("evm client: read 0x%02X: %w", addr, err)
	}
	return v, nil
}

func (c *Client) WriteRegister(addr uint8, value uint16) error {
	cmd := make([]byte, 0, len(cmdWriteReg)+3)
	cmd = append(cmd, cmdWriteReg...)
	cmd = append(cmd, addr, byte(value>>8), byte(value))

	if _, err := c.roundTrip(cmd); err != nil {
		return fmt.Errorf("evm client: write 0x%02X=0x%04X: %w", addr, value, err)
	}
	return nil
}

func (c *Client) ReadBurst(start uint8, count int) ([]uint16, error) {
	// The bridge has no multi-register command; the burst exists so the
	// caller has one call per acquisition step.
	out := make([]uint16, 0, count)
	for i := 0; i < count; i++ {
		v, err := c.ReadRegister(start + uint8(i))
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ---- transport.Streamer interface ----

// StartStream switches the bridge into continuous stream mode.
// The command is pre-framed; its CRC trailer is part of the constant.
func (c *Client) StartStream() error {
	if err := c.send(cmdStartStream); err != nil {
		return err
	}
	frame, err := c.readFrame()
	if err != nil {
		return err
	}
	if frame[respErrOffset] != 0 {
		return &BridgeError{Code: frame[respErrOffset]}
	}
	return nil
}

// StopStream returns the bridge to command mode.
func (c *Client) StopStream() error {
	if err := c.send(cmdStopStream); err != nil {
		return err
	}
	frame, err := c.readFrame()
	if err != nil {
		return err
	}
	if frame[respErrOffset] != 0 {
		return &BridgeError{Code: frame[respErrOffset]}
	}
	return nil
}

// ReadFrame reads one raw 32-byte stream frame.
func (c *Client) ReadFrame() ([]byte, error) {
	return c.readFrame()
}

// ---- internal request/response helpers ----

// roundTrip sends one CRC-trailed command and unpacks the register value
// from the fixed 32-byte response.
func (c *Client) roundTrip(cmd []byte) (uint16, error) {
	out := make([]byte, 0, len(cmd)+1)
	out = append(out, cmd...)
	out = append(out, crc8(cmd))

	if err := c.send(out); err != nil {
		return 0, err
	}

	resp, err := c.readFrame()
	if err != nil {
		return 0, err
	}
	if resp[respErrOffset] != 0 {
		return 0, &BridgeError{Code: resp[respErrOffset]}
	}
	return binary.BigEndian.Uint16(resp[respValueOffset : respValueOffset+2]), nil
}

func (c *Client) send(out []byte) error {
	if c == nil || c.port == nil {
		return transport.ErrDisconnected
	}

	if glog.V(2) {
		glog.Infof("evm tx % 02x", out)
	}

	n, err := c.port.Write(out)
	if err != nil {
		return fmt.Errorf("evm client: write: %v: %w", err, transport.ErrDisconnected)
	}
	if n != len(out) {
		return fmt.Errorf("evm client: wrote %d of %d bytes: %w", n, len(out), transport.ErrDisconnected)
	}
	return nil
}

// readFrame accumulates exactly one 32-byte frame. A read that returns no
// bytes means the port timeout elapsed: with nothing buffered that is a
// timeout, mid-frame it is a short read and the frame must be discarded.
func (c *Client) readFrame() ([]byte, error) {
	buf := make([]byte, frameLen)
	got := 0
	for got < frameLen {
		n, err := c.port.Read(buf[got:])
		if err != nil {
			return nil, fmt.Errorf("evm client: read: %v: %w", err, transport.ErrDisconnected)
		}
		if n == 0 {
			if got == 0 {
				return nil, transport.ErrTimeout
			}
			return nil, fmt.Errorf("evm client: %d of %d bytes: %w", got, frameLen, transport.ErrShortRead)
		}
		got += n
	}

	if glog.V(2) {
		glog.Infof("evm rx % 02x", buf)
	}
	return buf, nil
}
