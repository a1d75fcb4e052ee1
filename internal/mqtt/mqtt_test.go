package mqtt

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	fail     map[string]bool
}

func (p *recordingPublisher) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[topic] {
		return doneToken{err: errors.New("broker said no")}
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload.([]byte))
	return doneToken{}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "screens/S1/commands", Topic("S1"))
}

func TestRefreshScreens(t *testing.T) {
	pub := &recordingPublisher{fail: map[string]bool{Topic("broken"): true}}
	n := &Notifier{client: pub, now: func() time.Time { return time.Unix(1700000000, 0) }}
	id := 3

	n.RefreshScreens(context.Background(), &id, "S1", "broken", "S2")

	require.Equal(t, []string{Topic("S1"), Topic("S2")}, pub.topics)
	var cmd Command
	require.NoError(t, json.Unmarshal(pub.payloads[0], &cmd))
	assert.Equal(t, CommandRefresh, cmd.Type)
	require.NotNil(t, cmd.PlaylistID)
	assert.Equal(t, 3, *cmd.PlaylistID)
	assert.EqualValues(t, 1700000000, cmd.Timestamp)
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	n.RefreshScreens(context.Background(), nil, "S1")
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		t.Skip("MQTT_BROKER not set, skipping MQTT integration test")
	}

	got := make(chan struct{}, 1)
	sub, err := Connect(broker, "signage-test-sub", nil)
	require.NoError(t, err)
	defer Disconnect(sub)
	require.NoError(t, Subscribe(sub, "it-screen", func() { got <- struct{}{} }))

	pub, err := Connect(broker, "signage-test-pub", nil)
	require.NoError(t, err)
	defer Disconnect(pub)
	NewNotifier(pub).RefreshScreens(context.Background(), nil, "it-screen")

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh command not received")
	}
}
