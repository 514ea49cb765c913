// internal/transport/evm/client_test.go
package evm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/evm-logger/internal/transport"
)

// fakeWire scripts bridge responses. Read returns (0, nil) when the current
// response is exhausted, matching serial read-timeout semantics.
type fakeWire struct {
	writes    [][]byte
	responses [][]byte
	cur       []byte
	readErr   error
}

func (f *fakeWire) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	copy(b, p)
	f.writes = append(f.writes, b)
	return len(p), nil
}

func (f *fakeWire) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.cur) == 0 {
		if len(f.responses) == 0 {
			return 0, nil
		}
		f.cur = f.responses[0]
		f.responses = f.responses[1:]
	}
	n := copy(p, f.cur)
	f.cur = f.cur[n:]
	return n, nil
}

func (f *fakeWire) Close() error { return nil }

func (f *fakeWire) SetReadTimeout(time.Duration) error { return nil }

func response(code byte, value uint16) []byte {
	resp := make([]byte, frameLen)
	resp[respErrOffset] = code
	resp[respValueOffset] = byte(value >> 8)
	resp[respValueOffset+1] = byte(value)
	return resp
}

func newTestClient(w *fakeWire) *Client {
	return &Client{port: w, timeout: time.Second}
}

func TestCRC8_CheckValue(t *testing.T) {
	// Standard CRC-8 check value.
	require.Equal(t, byte(0xF4), crc8([]byte("123456789")))
}

func TestWriteRegister_Framing(t *testing.T) {
	w := &fakeWire{responses: [][]byte{response(0, 0)}}
	c := newTestClient(w)

	require.NoError(t, c.WriteRegister(0x1A, 0x2801))
	require.Len(t, w.writes, 1)

	want := []byte{0x4C, 0x15, 0x01, 0x00, 0x04, 0x2A, 0x1A, 0x28, 0x01}
	want = append(want, crc8(want))
	require.Equal(t, want, w.writes[0])
}

func TestReadRegister_TwoCommands(t *testing.T) {
	w := &fakeWire{responses: [][]byte{
		response(0, 0),      // set-address ack
		response(0, 0x3055), // read result
	}}
	c := newTestClient(w)

	v, err := c.ReadRegister(0x7F)
	require.NoError(t, err)
	require.Equal(t, uint16(0x3055), v)
	require.Len(t, w.writes, 2)

	setAddr := []byte{0x4C, 0x15, 0x01, 0x00, 0x02, 0x2A, 0x7F}
	setAddr = append(setAddr, crc8(setAddr))
	require.Equal(t, setAddr, w.writes[0])

	read := []byte{0x4C, 0x14, 0x01, 0x00, 0x02, 0x2A, 0x02}
	read = append(read, crc8(read))
	require.Equal(t, read, w.writes[1])
}

func TestReadBurst_Sequential(t *testing.T) {
	w := &fakeWire{responses: [][]byte{
		response(0, 0), response(0, 0x0AAA),
		response(0, 0), response(0, 0xBBBB),
	}}
	c := newTestClient(w)

	vals, err := c.ReadBurst(0x00, 2)
	require.NoError(t, err)
	require.Equal(t, []uint16{0x0AAA, 0xBBBB}, vals)
}

func TestRoundTrip_BridgeError(t *testing.T) {
	w := &fakeWire{responses: [][]byte{response(0x02, 0)}}
	c := newTestClient(w)

	err := c.WriteRegister(0x08, 0xFFFF)
	require.Error(t, err)

	var be *BridgeError
	require.True(t, errors.As(err, &be))
	require.Equal(t, byte(0x02), be.Code)
}

func TestReadFrame_Timeout(t *testing.T) {
	c := newTestClient(&fakeWire{})

	_, err := c.ReadRegister(0x18)
	require.ErrorIs(t, err, transport.ErrTimeout)
}

func TestReadFrame_Short(t *testing.T) {
	w := &fakeWire{responses: [][]byte{make([]byte, 10)}}
	c := newTestClient(w)

	_, err := c.ReadRegister(0x18)
	require.ErrorIs(t, err, transport.ErrShortRead)
}

func TestReadFrame_Disconnected(t *testing.T) {
	w := &fakeWire{readErr: errors.New("device unplugged")}
	c := newTestClient(w)

	_, err := c.ReadRegister(0x18)
	require.ErrorIs(t, err, transport.ErrDisconnected)
}

func TestStream_StartStop(t *testing.T) {
	w := &fakeWire{responses: [][]byte{response(0, 0), response(0, 0)}}
	c := newTestClient(w)

	require.NoError(t, c.StartStream())
	require.NoError(t, c.StopStream())
	require.Equal(t, cmdStartStream, w.writes[0])
	require.Equal(t, cmdStopStream, w.writes[1])
}
