// internal/config/validate_test.go
package config

import "testing"

// helper to build a minimal valid config quickly
func valid() *Config {
	return &Config{
		Logger: LoggerConfig{
			Device: DeviceConfig{
				Port:   "/dev/ttyACM0",
				Family: "ldc1614",
			},
			Channels: []ChannelConfig{
				{Index: 0, Enabled: true, Deglitch: "10mhz"},
				{Index: 1, Enabled: true, Deglitch: "10mhz"},
			},
			Sinks: SinksConfig{
				Log: LogSinkConfig{Enabled: true},
			},
		},
	}
}

// ---- tests ----

func TestValidate_MinimalConfig(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingPort(t *testing.T) {
	cfg := valid()
	cfg.Logger.Device.Port = ""

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected port error, got nil")
	}
}

func TestValidate_UnknownFamily(t *testing.T) {
	cfg := valid()
	cfg.Logger.Device.Family = "ldc9999"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected family error, got nil")
	}
}

func TestValidate_ChannelOutOfRangeForFamily(t *testing.T) {
	cfg := valid()
	cfg.Logger.Device.Family = "fdc2212" // 2-channel part
	cfg.Logger.Channels = []ChannelConfig{
		{Index: 2, Enabled: true},
	}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected index error, got nil")
	}
}

func TestValidate_DuplicateChannelIndex(t *testing.T) {
	cfg := valid()
	cfg.Logger.Channels = []ChannelConfig{
		{Index: 0, Enabled: true},
		{Index: 0, Enabled: true},
	}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected duplicate error, got nil")
	}
}

func TestValidate_NoEnabledChannels(t *testing.T) {
	cfg := valid()
	cfg.Logger.Channels = []ChannelConfig{{Index: 0}}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected enabled-channel error, got nil")
	}
}

func TestValidate_DeglitchMismatch(t *testing.T) {
	cfg := valid()
	cfg.Logger.Channels[1].Deglitch = "33mhz"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected deglitch error, got nil")
	}
}

func TestValidate_FieldWidths(t *testing.T) {
	cfg := valid()
	cfg.Logger.Channels[0].FinDivider = 0x10

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected fin_divider error, got nil")
	}

	cfg = valid()
	cfg.Logger.Channels[0].DriveCurrent = 0x20

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected drive_current error, got nil")
	}
}

func TestValidate_NoSinks(t *testing.T) {
	cfg := valid()
	cfg.Logger.Sinks.Log.Enabled = false

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected sink error, got nil")
	}
}

func TestValidate_MQTTRequiresBrokerAndTopic(t *testing.T) {
	cfg := valid()
	cfg.Logger.Sinks.MQTT = &MQTTSinkConfig{Broker: "tcp://localhost:1883"}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected topic error, got nil")
	}
}

func TestValidate_BadMode(t *testing.T) {
	cfg := valid()
	cfg.Logger.Acquire.Mode = "burst"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected mode error, got nil")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := valid()
	cfg.Logger.Channels[0].Deglitch = ""
	cfg.Logger.Channels[1].Deglitch = "33mhz"

	Normalize(cfg)

	lc := cfg.Logger
	if lc.Device.Baud != 115200 {
		t.Fatalf("baud default: got %d", lc.Device.Baud)
	}
	if lc.Device.TimeoutMs != 1000 {
		t.Fatalf("timeout default: got %d", lc.Device.TimeoutMs)
	}
	if lc.Acquire.Mode != "poll" {
		t.Fatalf("mode default: got %q", lc.Acquire.Mode)
	}
	if lc.Acquire.IntervalMs != 10 {
		t.Fatalf("interval default: got %d", lc.Acquire.IntervalMs)
	}
	if lc.Sinks.QueueSize != 64 {
		t.Fatalf("queue size default: got %d", lc.Sinks.QueueSize)
	}

	ch0 := lc.Channels[0]
	if ch0.ConversionTime != 0xFFFF || ch0.SettleCount != 0x1000 {
		t.Fatalf("conversion defaults: got %+v", ch0)
	}
	if ch0.FinDivider != 1 || ch0.FrefDivider != 1 {
		t.Fatalf("divider defaults: got %+v", ch0)
	}
	// Empty deglitch inherits the filter of the first enabled channel
	// that set one.
	if ch0.Deglitch != "33mhz" {
		t.Fatalf("deglitch inherit: got %q", ch0.Deglitch)
	}
}

func TestNormalize_SortsChannels(t *testing.T) {
	cfg := valid()
	cfg.Logger.Channels = []ChannelConfig{
		{Index: 2, Enabled: true},
		{Index: 0, Enabled: true},
	}
	Normalize(cfg)

	if cfg.Logger.Channels[0].Index != 0 || cfg.Logger.Channels[1].Index != 2 {
		t.Fatalf("channels not sorted: %+v", cfg.Logger.Channels)
	}
}
