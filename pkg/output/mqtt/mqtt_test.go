package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/spacer/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic   string
	payload []byte
}

// fakeClient records publishes; other mqtt.Client methods are not used.
type fakeClient struct {
	mqtt.Client

	published    []message
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, p interface{}) mqtt.Token {
	c.published = append(c.published, message{topic: topic, payload: p.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	out := newOutput(client, "home/mat/", []string{"heel", ""})

	s := sample.Sample{
		Timestamp: time.Now(),
		Values:    []float64{0.5, 0.25, 0.75},
		Levels:    []float64{0.4, 0.15},
	}
	require.NoError(t, out.Publish(s))
	require.Len(t, client.published, 3)

	assert.Equal(t, "home/mat/heel", client.published[0].topic)
	assert.Equal(t, "home/mat/ch1", client.published[1].topic)
	assert.Equal(t, "home/mat/ch2", client.published[2].topic)

	var p payload
	require.NoError(t, json.Unmarshal(client.published[0].payload, &p))
	assert.Equal(t, payload{Value: 0.5, Level: 0.4}, p)

	// no level for channel 2, the value is reported as is
	require.NoError(t, json.Unmarshal(client.published[2].payload, &p))
	assert.Equal(t, payload{Value: 0.75, Level: 0.75}, p)
}

func TestPublish_DefaultTopic(t *testing.T) {
	client := &fakeClient{}
	out := newOutput(client, "", []string{"s0"})

	require.NoError(t, out.Publish(sample.Sample{Values: []float64{0.1}, Levels: []float64{0.1}}))
	assert.Equal(t, "spacer/s0", client.published[0].topic)
}

func TestPublish_Error(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	out := newOutput(client, "spacer", []string{"s0", "s1"})

	err := out.Publish(sample.Sample{Values: []float64{0.1, 0.2}, Levels: []float64{0.1, 0.2}})
	assert.Error(t, err)
	assert.Len(t, client.published, 1, "stops at the first failure")
}

func TestClose(t *testing.T) {
	client := &fakeClient{}
	out := newOutput(client, "spacer", nil)

	assert.NoError(t, out.Close())
	assert.True(t, client.disconnected)
}
