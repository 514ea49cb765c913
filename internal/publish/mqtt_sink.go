// internal/publish/mqtt_sink.go
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/tamzrod/evm-logger/internal/decoder"
)

// MQTTConfig is minimal broker config for the network sink.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Topic       string
	HealthTopic string
	Timeout     time.Duration
}

// MQTTSink publishes wire records to a broker topic. Sample telemetry goes
// out at QoS 0; health transitions are retained so late subscribers see the
// current state.
type MQTTSink struct {
	cfg    MQTTConfig
	client paho.Client
}

// NewMQTTSink connects to the broker and returns the sink.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt sink: broker url required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt sink: topic required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	}
	opts.SetOnConnectHandler(func(paho.Client) {
		glog.Infof("mqtt sink: connected to %s", cfg.BrokerURL)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("mqtt sink: connection lost: %v", err)
	})

	s := &MQTTSink{cfg: cfg, client: paho.NewClient(opts)}
	token := s.client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mqtt sink: connect to %s timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt sink: connect: %w", err)
	}
	return s, nil
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Publish(sample decoder.Sample) error {
	payload, err := EncodeSample(sample)
	if err != nil {
		return fmt.Errorf("mqtt sink: encode: %w", err)
	}
	return s.publish(s.cfg.Topic, payload, false)
}

// PublishHealth implements HealthSink on a retained topic.
func (s *MQTTSink) PublishHealth(hs HealthSnapshot) error {
	if s.cfg.HealthTopic == "" {
		return nil
	}
	payload, err := json.Marshal(struct {
		State     string `json:"state"`
		LastError string `json:"last_error,omitempty"`
		Since     string `json:"since"`
	}{
		State:     hs.State.String(),
		LastError: hs.LastError,
		Since:     hs.Since.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("mqtt sink: encode health: %w", err)
	}
	return s.publish(s.cfg.HealthTopic, payload, true)
}

func (s *MQTTSink) publish(topic string, payload []byte, retain bool) error {
	token := s.client.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(s.cfg.Timeout) {
		return fmt.Errorf("mqtt sink: publish to %s timed out", topic)
	}
	return token.Error()
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
