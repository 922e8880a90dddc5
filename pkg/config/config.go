package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Divider     DividerConfig     `yaml:"divider"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Channels    []ChannelConfig   `yaml:"channels"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Periph      PeriphConfig      `yaml:"periph"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// DividerConfig describes the sensor's voltage divider.
// RRef and VRef are informational; normalization only uses ADCBits.
type DividerConfig struct {
	ADCBits uint8   `yaml:"adc_bits"`
	RRef    float64 `yaml:"r_ref"` // Reference resistor (ohm)
	VRef    float64 `yaml:"v_ref"` // Reference voltage (V)
}

// AcquisitionConfig contains sampler timing.
type AcquisitionConfig struct {
	Window time.Duration `yaml:"window"` // Per-channel averaging window
	Settle time.Duration `yaml:"settle"` // Settle time after powering a divider
}

// ChannelConfig describes a single sensor channel.
type ChannelConfig struct {
	Name   string  `yaml:"name"`
	Sense  int     `yaml:"sense"`  // ADS1115 input (periph backend)
	Power  string  `yaml:"power"`  // GPIO name powering the divider (periph backend)
	Offset float64 `yaml:"offset"` // Normalized reading at rest
	Gain   float64 `yaml:"gain"`   // Level = (value - offset) * gain
}

// MeasurementConfig contains measurement parameters.
type MeasurementConfig struct {
	WindowSeconds    float64 `yaml:"window_seconds"`
	PressThreshold   float64 `yaml:"press_threshold"`
	MinPressDuration float64 `yaml:"min_press_duration"` // Minimum press duration in seconds (filters noise)
	AverageSamples   int     `yaml:"average_samples"`    // Number of frames to average (0 = disabled, default)
}

// MockConfig contains simulated sensor configuration.
type MockConfig struct {
	NoiseLevel    float64       `yaml:"noise_level"`    // Noise amplitude (fraction of full scale)
	RestLevel     float64       `yaml:"rest_level"`     // Reading of an unloaded sensor
	PressLevel    float64       `yaml:"press_level"`    // Reading of a fully pressed sensor
	PressDuration time.Duration `yaml:"press_duration"` // Duration of each simulated press
	PressPeriod   time.Duration `yaml:"press_period"`   // Time between presses on a channel
	CyclePeriod   time.Duration `yaml:"cycle_period"`   // Pause between acquisition cycles
}

// MQTTConfig contains MQTT publishing configuration.
type MQTTConfig struct {
	Server   string        `yaml:"server"`
	ClientID string        `yaml:"client_id"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
}

// PeriphConfig contains the Linux backend configuration.
type PeriphConfig struct {
	I2CBus     string `yaml:"i2c_bus"`
	I2CAddress uint16 `yaml:"i2c_address"`
	DataRate   int    `yaml:"data_rate"` // ADS1115 samples per second
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // "COM3" on Windows
			BaudRate: 115200,
		},
		Divider: DividerConfig{
			ADCBits: 12,
			RRef:    606000,
			VRef:    3.268,
		},
		Acquisition: AcquisitionConfig{
			Window: 3 * time.Millisecond,
			Settle: 100 * time.Microsecond,
		},
		Channels: []ChannelConfig{
			{Name: "s0", Sense: 0, Power: "GPIO5", Gain: 1},
			{Name: "s1", Sense: 1, Power: "GPIO6", Gain: 1},
			{Name: "s2", Sense: 2, Power: "GPIO13", Gain: 1},
			{Name: "s3", Sense: 3, Power: "GPIO19", Gain: 1},
		},
		Measurement: MeasurementConfig{
			WindowSeconds:    10,
			PressThreshold:   0.1,
			MinPressDuration: 0.05, // Filter presses shorter than 50 ms
			AverageSamples:   0,    // No averaging by default
		},
		Mock: MockConfig{
			NoiseLevel:    0.005,
			RestLevel:     0.05,
			PressLevel:    0.8,
			PressDuration: 1 * time.Second,
			PressPeriod:   4 * time.Second,
			CyclePeriod:   8 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			Server:   "tcp://localhost:1883",
			ClientID: "spacer",
			Topic:    "spacer",
			Interval: time.Second,
		},
		Periph: PeriphConfig{
			I2CBus:     "1",
			I2CAddress: 0x48,
			DataRate:   860,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ChannelNames returns the configured channel names in index order.
func (c *Config) ChannelNames() []string {
	names := make([]string, len(c.Channels))
	for i, ch := range c.Channels {
		names[i] = ch.Name
	}
	return names
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Divider.ADCBits == 0 {
		c.Divider.ADCBits = def.Divider.ADCBits
	}
	if c.Divider.RRef == 0 {
		c.Divider.RRef = def.Divider.RRef
	}
	if c.Divider.VRef == 0 {
		c.Divider.VRef = def.Divider.VRef
	}

	if c.Acquisition.Window == 0 {
		c.Acquisition.Window = def.Acquisition.Window
	}
	if c.Acquisition.Settle == 0 {
		c.Acquisition.Settle = def.Acquisition.Settle
	}

	if len(c.Channels) == 0 {
		c.Channels = def.Channels
	}
	for i := range c.Channels {
		if c.Channels[i].Name == "" {
			c.Channels[i].Name = fmt.Sprintf("s%d", i)
		}
		if c.Channels[i].Gain == 0 {
			c.Channels[i].Gain = 1
		}
	}

	if c.Measurement.WindowSeconds == 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}
	if c.Measurement.PressThreshold == 0 {
		c.Measurement.PressThreshold = def.Measurement.PressThreshold
	}

	if c.Mock.PressDuration == 0 {
		c.Mock.PressDuration = def.Mock.PressDuration
	}
	if c.Mock.PressPeriod == 0 {
		c.Mock.PressPeriod = def.Mock.PressPeriod
	}
	if c.Mock.PressLevel == 0 {
		c.Mock.PressLevel = def.Mock.PressLevel
	}
	if c.Mock.CyclePeriod == 0 {
		c.Mock.CyclePeriod = def.Mock.CyclePeriod
	}

	if c.MQTT.Server == "" {
		c.MQTT.Server = def.MQTT.Server
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.Interval == 0 {
		c.MQTT.Interval = def.MQTT.Interval
	}

	if c.Periph.I2CBus == "" {
		c.Periph.I2CBus = def.Periph.I2CBus
	}
	if c.Periph.I2CAddress == 0 {
		c.Periph.I2CAddress = def.Periph.I2CAddress
	}
	if c.Periph.DataRate == 0 {
		c.Periph.DataRate = def.Periph.DataRate
	}
}
