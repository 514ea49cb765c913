// internal/publish/builder.go
package publish

import (
	"io"
	"time"

	cfg "github.com/tamzrod/evm-logger/internal/config"
)

// Build constructs the publisher with every configured sink attached.
// logOut receives the log sink's JSON lines; the process passes stdout.
func Build(sc cfg.SinksConfig, logOut io.Writer) (*Publisher, error) {
	var sinks []Sink

	if sc.Log.Enabled {
		sinks = append(sinks, NewWriterSink(logOut))
	}

	if m := sc.MQTT; m != nil {
		s, err := NewMQTTSink(MQTTConfig{
			BrokerURL:   m.Broker,
			ClientID:    m.ClientID,
			Topic:       m.Topic,
			HealthTopic: m.HealthTopic,
			Timeout:     time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return New(sc.QueueSize, sinks...), nil
}
