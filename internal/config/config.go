// internal/config/config.go
package config

type Config struct {
	Logger LoggerConfig `yaml:"logger"`
}

type LoggerConfig struct {
	Device   DeviceConfig    `yaml:"device"`
	Channels []ChannelConfig `yaml:"channels"`
	Acquire  AcquireConfig   `yaml:"acquire"`
	Sinks    SinksConfig     `yaml:"sinks"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	Family    string `yaml:"family"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// VerifyWrites enables readback verification of every configuration
	// write.
	VerifyWrites bool `yaml:"verify_writes"`
}

// ---- CHANNELS ----

type ChannelConfig struct {
	Index   int  `yaml:"index"`
	Enabled bool `yaml:"enabled"`

	ConversionTime uint16 `yaml:"conversion_time"`
	SettleCount    uint16 `yaml:"settle_count"`
	FinDivider     uint16 `yaml:"fin_divider"`
	FrefDivider    uint16 `yaml:"fref_divider"`
	DriveCurrent   uint16 `yaml:"drive_current"`

	// Deglitch is the input filter: one of 1mhz, 3.3mhz, 10mhz, 33mhz.
	// The part applies a single filter; enabled channels must agree.
	Deglitch string `yaml:"deglitch"`
}

// ---- ACQUISITION ----

type AcquireConfig struct {
	Mode                 string `yaml:"mode"` // poll (default) or stream
	IntervalMs           int    `yaml:"interval_ms"`
	ConfigureRetries     int    `yaml:"configure_retries"`
	NotReadyRetries      int    `yaml:"not_ready_retries"`
	ReconnectMaxAttempts int    `yaml:"reconnect_max_attempts"`
	ReconnectBackoffMs   int    `yaml:"reconnect_backoff_ms"`
}

// ---- SINKS ----

type SinksConfig struct {
	QueueSize int             `yaml:"queue_size"`
	Log       LogSinkConfig   `yaml:"log"`
	MQTT      *MQTTSinkConfig `yaml:"mqtt"` // opt-in
}

type LogSinkConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MQTTSinkConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Topic       string `yaml:"topic"`
	HealthTopic string `yaml:"health_topic"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}
