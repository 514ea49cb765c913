// internal/decoder/decoder.go
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/tamzrod/evm-logger/internal/regmap"
	"github.com/tamzrod/evm-logger/internal/transport"
)

// State is the decoder's position in the acquisition cycle.
type State int

const (
	// StateIdle: no cycle in progress. The only state a cycle may start from.
	StateIdle State = iota

	// StateAwaitingChannelData: mid-cycle, reading one channel's halves.
	StateAwaitingChannelData

	// StateFrameComplete: all enabled channels read; assembling the sample.
	StateFrameComplete
)

// Config is the minimal runtime config the decoder needs.
type Config struct {
	// Channels are the enabled channel indexes.
	Channels []int

	// NotReadyRetries bounds the per-channel wait for an unread conversion
	// before the channel is timed out for this cycle.
	NotReadyRetries int

	// RetryBackoff is the pause between not-ready polls.
	RetryBackoff time.Duration
}

// Decoder turns register reads into typed multi-channel samples.
// It is driven by exactly one goroutine; the wire protocol has no
// concurrent-access semantics.
type Decoder struct {
	cfg Config
	tr  transport.Transport
	rm  *regmap.Map

	state State
}

// New creates a decoder with immutable config.
func New(cfg Config, tr transport.Transport, rm *regmap.Map) (*Decoder, error) {
	if len(cfg.Channels) == 0 {
		return nil, errors.New("decoder: at least one channel required")
	}
	chans := append([]int(nil), cfg.Channels...)
	sort.Ints(chans)
	for i, ch := range chans {
		if ch < 0 || ch >= rm.Channels {
			return nil, fmt.Errorf("decoder: channel %d out of range for %s", ch, rm.Family)
		}
		if i > 0 && chans[i-1] == ch {
			return nil, fmt.Errorf("decoder: duplicate channel %d", ch)
		}
	}
	cfg.Channels = chans
	if cfg.NotReadyRetries <= 0 {
		cfg.NotReadyRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Microsecond
	}
	return &Decoder{cfg: cfg, tr: tr, rm: rm, state: StateIdle}, nil
}

// State reports the decoder state. After any aborted cycle it is StateIdle.
func (d *Decoder) State() State {
	return d.state
}

// DecodeCycle runs one full acquisition cycle and returns one sample with
// exactly one entry per enabled channel, in channel-index order.
//
// A channel that never becomes ready is recorded as an absent reading with
// watchdog_timeout; other channels in the cycle are unaffected. A short or
// failed read mid-cycle discards the whole frame and resynchronizes to
// Idle: misaligned halves decode to plausible-but-wrong values, which is
// worse than a dropped sample.
func (d *Decoder) DecodeCycle() (Sample, error) {
	d.state = StateAwaitingChannelData
	readings := make(map[int]Reading, len(d.cfg.Channels))

	for _, ch := range d.cfg.Channels {
		ready, err := d.waitReady(ch)
		if err != nil {
			return Sample{}, d.resync(ch, err)
		}
		if !ready {
			// Conversion timeout, isolated to this channel.
			glog.Warningf("decoder: channel %d conversion timeout", ch)
			readings[ch] = Reading{Flags: regmap.FlagWatchdogTimeout}
			continue
		}

		// High and low halves, one burst over the two data registers.
		words, err := d.tr.ReadBurst(d.rm.DataMSB(ch), 2)
		if err != nil {
			return Sample{}, d.resync(ch, err)
		}
		if len(words) < 2 {
			return Sample{}, d.resync(ch, transport.ErrShortRead)
		}
		msb, lsb := words[0], words[1]

		readings[ch] = Reading{
			Value: uint32(msb&regmap.DataMask)<<16 | uint32(lsb),
			Valid: true,
			Flags: d.rm.DecodeFlags(msb),
		}
	}

	d.state = StateFrameComplete
	s := Sample{At: time.Now(), Readings: readings}
	d.state = StateIdle
	return s, nil
}

// waitReady polls STATUS until channel ch has an unread conversion.
// Returns false when the bounded retries are exhausted.
func (d *Decoder) waitReady(ch int) (bool, error) {
	for attempt := 0; attempt <= d.cfg.NotReadyRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.cfg.RetryBackoff)
		}
		status, err := d.tr.ReadRegister(regmap.RegStatus)
		if err != nil {
			return false, err
		}
		if status&d.rm.UnreadMask(ch) != 0 {
			return true, nil
		}
	}
	return false, nil
}

// resync discards the in-progress frame and returns to Idle. Never attempt
// to realign within a corrupted frame.
func (d *Decoder) resync(ch int, err error) error {
	d.state = StateIdle
	return fmt.Errorf("decoder: cycle aborted at channel %d, frame discarded: %w", ch, err)
}

// Stream-frame layout, fixed by the EVM bridge firmware: error code at
// byte 3, four big-endian 32-bit channel words starting at byte 6. The top
// nibble of each word carries the same error flags as the data-MSB register.
const (
	streamFrameLen    = 32
	streamErrOffset   = 3
	streamDataOffset  = 6
	streamValueMask   = 0x0FFFFFFF
	streamMaxChannels = 4
)

// DecodeStreamFrame decodes one raw stream-mode frame into a sample for the
// enabled channels. Stream frames always carry four channel slots; disabled
// channels are ignored.
func (d *Decoder) DecodeStreamFrame(frame []byte, at time.Time) (Sample, error) {
	if len(frame) != streamFrameLen {
		return Sample{}, fmt.Errorf("decoder: stream frame is %d bytes, want %d: %w",
			len(frame), streamFrameLen, transport.ErrShortRead)
	}
	if code := frame[streamErrOffset]; code != 0 {
		return Sample{}, fmt.Errorf("decoder: stream frame error code 0x%02X", code)
	}

	readings := make(map[int]Reading, len(d.cfg.Channels))
	for _, ch := range d.cfg.Channels {
		if ch >= streamMaxChannels {
			continue
		}
		word := binary.BigEndian.Uint32(frame[streamDataOffset+4*ch:])
		readings[ch] = Reading{
			Value: word & streamValueMask,
			Valid: true,
			Flags: d.rm.DecodeFlags(uint16(word >> 16)),
		}
	}
	return Sample{At: at, Readings: readings}, nil
}
