package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/output"
	"github.com/itohio/spacer/pkg/sample"
)

const (
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "spacer"
	DefaultTopic    = "spacer"
)

// payload is published once per channel.
type payload struct {
	Value float64 `json:"value"` // Normalized reading
	Level float64 `json:"level"` // Tared reading
}

type MQTTOutput struct {
	client mqtt.Client
	base   string
	topics []string
}

// NewMQTT connects to the broker and returns an output publishing every
// channel to <topic>/<channel name>.
func NewMQTT(cfg config.MQTTConfig, names []string) (output.Output, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return newOutput(client, cfg.Topic, names), nil
}

func newOutput(client mqtt.Client, topic string, names []string) *MQTTOutput {
	base := strings.TrimSuffix(topic, "/")
	if base == "" {
		base = DefaultTopic
	}
	topics := make([]string, len(names))
	for i, name := range names {
		topics[i] = channelTopic(base, name, i)
	}
	return &MQTTOutput{client: client, base: base, topics: topics}
}

func (m *MQTTOutput) Publish(s sample.Sample) error {
	for i, v := range s.Values {
		level := v
		if i < len(s.Levels) {
			level = s.Levels[i]
		}
		b, err := json.Marshal(payload{Value: v, Level: level})
		if err != nil {
			return err
		}
		token := m.client.Publish(m.topic(i), 0, false, b)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("publish %s: %w", m.topic(i), token.Error())
		}
	}
	return nil
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

func (m *MQTTOutput) topic(channel int) string {
	if channel < len(m.topics) {
		return m.topics[channel]
	}
	return channelTopic(m.base, "", channel)
}

func channelTopic(base, name string, channel int) string {
	if name == "" {
		name = fmt.Sprintf("ch%d", channel)
	}
	return base + "/" + name
}
