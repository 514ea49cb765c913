// internal/acquire/loop.go
package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/tamzrod/evm-logger/internal/decoder"
	"github.com/tamzrod/evm-logger/internal/device"
	"github.com/tamzrod/evm-logger/internal/publish"
	"github.com/tamzrod/evm-logger/internal/transport"
)

// Session bundles the per-connection pipeline objects. The loop owns the
// session exclusively for its lifetime; nothing else drives reads.
type Session struct {
	Transport    transport.Transport
	Configurator *device.Configurator
	Decoder      *decoder.Decoder
}

// Factory dials the device and builds a fresh session. ONE attempt per
// call; retry policy belongs to the loop.
type Factory func() (*Session, error)

// Acquisition modes.
const (
	ModePoll   = "poll"
	ModeStream = "stream"
)

// Config is the loop's immutable runtime config.
type Config struct {
	Mode     string
	Interval time.Duration

	Channels []device.ChannelConfig

	// ConfigureRetries bounds configuration attempts per session before
	// the loop gives up.
	ConfigureRetries int

	// ReconnectMaxAttempts bounds reconnection after transport loss;
	// exhausting it terminates the loop.
	ReconnectMaxAttempts int

	// ReconnectBackoff is the initial backoff, doubled per attempt.
	ReconnectBackoff time.Duration
}

// Loop is the top-level driver: configure once, then read, decode and
// publish until the context ends or the transport is lost for good.
type Loop struct {
	cfg     Config
	factory Factory
	pub     *publish.Publisher

	sess   *Session
	health publish.Health
}

// New creates a loop with immutable config.
func New(cfg Config, factory Factory, pub *publish.Publisher) (*Loop, error) {
	if factory == nil {
		return nil, errors.New("acquire: session factory required")
	}
	if pub == nil {
		return nil, errors.New("acquire: publisher required")
	}
	switch cfg.Mode {
	case "", ModePoll:
		cfg.Mode = ModePoll
		if cfg.Interval <= 0 {
			return nil, errors.New("acquire: poll interval must be > 0")
		}
	case ModeStream:
	default:
		return nil, fmt.Errorf("acquire: unknown mode %q", cfg.Mode)
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("acquire: at least one channel required")
	}
	if cfg.ConfigureRetries < 0 {
		cfg.ConfigureRetries = 0
	}
	if cfg.ReconnectMaxAttempts <= 0 {
		cfg.ReconnectMaxAttempts = 5
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = 250 * time.Millisecond
	}
	return &Loop{cfg: cfg, factory: factory, pub: pub, health: publish.HealthUnknown}, nil
}

// Run drives the acquisition until ctx ends. It returns nil on a clean
// stop and an error only when the session cannot be (re)established.
func (l *Loop) Run(ctx context.Context) error {
	sess, err := l.openSession()
	if err != nil {
		return err
	}
	l.sess = sess
	defer l.closeSession()

	if l.cfg.Mode == ModeStream {
		return l.runStream(ctx)
	}
	return l.runPoll(ctx)
}

func (l *Loop) runPoll(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sample, err := l.sess.Decoder.DecodeCycle()
			switch {
			case err == nil:
				l.pub.Publish(sample)
				l.setHealth(publish.HealthOK, "")

			case errors.Is(err, transport.ErrDisconnected):
				l.setHealth(publish.HealthError, err.Error())
				if err := l.reconnect(ctx); err != nil {
					return err
				}

			default:
				// Timeout or discarded frame: skip this cycle, keep going.
				glog.Warningf("acquire: cycle skipped: %v", err)
				l.setHealth(publish.HealthError, err.Error())
			}
		}
	}
}

func (l *Loop) runStream(ctx context.Context) error {
	streamer, err := l.startStream()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if err := streamer.StopStream(); err != nil {
				glog.Warningf("acquire: stop stream: %v", err)
			}
			return nil
		default:
		}

		frame, err := streamer.ReadFrame()
		switch {
		case err == nil:
			sample, derr := l.sess.Decoder.DecodeStreamFrame(frame, time.Now())
			if derr != nil {
				glog.Warningf("acquire: stream frame discarded: %v", derr)
				l.setHealth(publish.HealthError, derr.Error())
				continue
			}
			l.pub.Publish(sample)
			l.setHealth(publish.HealthOK, "")

		case errors.Is(err, transport.ErrDisconnected):
			l.setHealth(publish.HealthError, err.Error())
			if err := l.reconnect(ctx); err != nil {
				return err
			}
			if streamer, err = l.startStream(); err != nil {
				return err
			}

		default:
			glog.Warningf("acquire: stream read skipped: %v", err)
			l.setHealth(publish.HealthError, err.Error())
		}
	}
}

func (l *Loop) startStream() (transport.Streamer, error) {
	streamer, ok := l.sess.Transport.(transport.Streamer)
	if !ok {
		return nil, errors.New("acquire: transport does not support stream mode")
	}
	if err := streamer.StartStream(); err != nil {
		return nil, fmt.Errorf("acquire: start stream: %w", err)
	}
	return streamer, nil
}

// openSession dials once and configures with bounded retries. A rejected
// configuration means the device would produce misleading samples; it is
// fatal once retries are exhausted.
func (l *Loop) openSession() (*Session, error) {
	sess, err := l.factory()
	if err != nil {
		return nil, fmt.Errorf("acquire: connect: %w", err)
	}

	if _, _, err := sess.Configurator.Identify(); err != nil {
		sess.Transport.Close()
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= l.cfg.ConfigureRetries; attempt++ {
		lastErr = sess.Configurator.Configure(l.cfg.Channels)
		if lastErr == nil {
			return sess, nil
		}
		glog.Warningf("acquire: configure attempt %d/%d failed: %v",
			attempt+1, l.cfg.ConfigureRetries+1, lastErr)
	}
	sess.Transport.Close()
	return nil, fmt.Errorf("acquire: configuration failed after %d attempts: %w",
		l.cfg.ConfigureRetries+1, lastErr)
}

// reconnect replaces the dead session, backing off exponentially between
// attempts. Exhausting the attempt budget terminates the loop.
func (l *Loop) reconnect(ctx context.Context) error {
	l.closeSession()

	backoff := l.cfg.ReconnectBackoff
	for attempt := 1; attempt <= l.cfg.ReconnectMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		sess, err := l.openSession()
		if err != nil {
			glog.Warningf("acquire: reconnect attempt %d/%d failed: %v",
				attempt, l.cfg.ReconnectMaxAttempts, err)
			continue
		}
		l.sess = sess
		glog.Infof("acquire: reconnected after %d attempt(s)", attempt)
		return nil
	}
	return fmt.Errorf("acquire: gave up after %d reconnect attempts: %w",
		l.cfg.ReconnectMaxAttempts, transport.ErrDisconnected)
}

func (l *Loop) closeSession() {
	if l.sess == nil {
		return
	}
	// Best effort: park the device before dropping the line.
	if err := l.sess.Configurator.Sleep(); err != nil {
		glog.V(2).Infof("acquire: sleep on close: %v", err)
	}
	if err := l.sess.Transport.Close(); err != nil {
		glog.Warningf("acquire: close transport: %v", err)
	}
	l.sess = nil
}

func (l *Loop) setHealth(h publish.Health, lastError string) {
	if l.health == h {
		return
	}
	l.health = h
	l.pub.PublishHealth(publish.HealthSnapshot{
		State:     h,
		LastError: lastError,
		Since:     time.Now(),
	})
}
