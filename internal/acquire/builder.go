// internal/acquire/builder.go
package acquire

import (
	"fmt"
	"time"

	cfg "github.com/tamzrod/evm-logger/internal/config"
	"github.com/tamzrod/evm-logger/internal/decoder"
	"github.com/tamzrod/evm-logger/internal/device"
	"github.com/tamzrod/evm-logger/internal/publish"
	"github.com/tamzrod/evm-logger/internal/regmap"
	"github.com/tamzrod/evm-logger/internal/transport/evm"
)

// Build constructs the acquisition loop and wires the session factory.
// The factory dials ONE attempt per call; retry and reconnect policy live
// in the loop.
func Build(lc cfg.LoggerConfig, pub *publish.Publisher) (*Loop, error) {
	rm, err := regmap.ForFamily(lc.Device.Family)
	if err != nil {
		return nil, err
	}

	channels := make([]device.ChannelConfig, 0, len(lc.Channels))
	var enabled []int
	for _, ch := range lc.Channels {
		code, ok := cfg.DeglitchCode(ch.Deglitch)
		if !ok {
			return nil, fmt.Errorf("acquire: unknown deglitch filter %q", ch.Deglitch)
		}
		channels = append(channels, device.ChannelConfig{
			Index:          ch.Index,
			Enabled:        ch.Enabled,
			ConversionTime: ch.ConversionTime,
			SettleCount:    ch.SettleCount,
			FinDivider:     ch.FinDivider,
			FrefDivider:    ch.FrefDivider,
			DriveCurrent:   ch.DriveCurrent,
			Deglitch:       code,
		})
		if ch.Enabled {
			enabled = append(enabled, ch.Index)
		}
	}

	factory := func() (*Session, error) {
		tr, err := evm.New(evm.Config{
			Port:    lc.Device.Port,
			Baud:    lc.Device.Baud,
			Timeout: time.Duration(lc.Device.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}

		dec, err := decoder.New(decoder.Config{
			Channels:        enabled,
			NotReadyRetries: lc.Acquire.NotReadyRetries,
		}, tr, rm)
		if err != nil {
			tr.Close()
			return nil, err
		}

		return &Session{
			Transport:    tr,
			Configurator: device.New(tr, rm, lc.Device.VerifyWrites),
			Decoder:      dec,
		}, nil
	}

	return New(Config{
		Mode:                 lc.Acquire.Mode,
		Interval:             time.Duration(lc.Acquire.IntervalMs) * time.Millisecond,
		Channels:             channels,
		ConfigureRetries:     lc.Acquire.ConfigureRetries,
		ReconnectMaxAttempts: lc.Acquire.ReconnectMaxAttempts,
		ReconnectBackoff:     time.Duration(lc.Acquire.ReconnectBackoffMs) * time.Millisecond,
	}, factory, pub)
}
