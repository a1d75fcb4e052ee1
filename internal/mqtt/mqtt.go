// Package mqtt pushes refresh commands from the server to players so they
// fetch new content without waiting for their next poll.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	CommandRefresh = "refresh"

	qos            = 1
	publishTimeout = 5 * time.Second
	disconnectMs   = 250
)

// Client is the broker connection handed to Connect's onConnect callback.
type Client = paho.Client

// Command is the payload published on a screen's command topic.
type Command struct {
	Type       string `json:"type"`
	PlaylistID *int   `json:"playlist_id,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Topic is the command topic of one screen.
func Topic(identifier string) string {
	return fmt.Sprintf("screens/%s/commands", identifier)
}

// Connect dials the broker. onConnect runs after every (re)connect, which is
// where subscriptions belong since paho drops them with a clean session.
func Connect(brokerURL, clientID string, onConnect func(paho.Client)) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(c paho.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
		if onConnect != nil {
			onConnect(c)
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warn().Err(err).Str("broker", brokerURL).Msg("MQTT connection lost")
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		// connect retry keeps going in the background
		log.Warn().Str("broker", brokerURL).Msg("MQTT broker not reachable yet, retrying in background")
		return client, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return client, nil
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Notifier publishes refresh commands. A nil *Notifier publishes nothing.
type Notifier struct {
	client publisher
	now    func() time.Time
}

func NewNotifier(client paho.Client) *Notifier {
	return &Notifier{client: client, now: time.Now}
}

// RefreshScreens asks each screen to refetch its content. Failures are
// logged; players still pick the change up on their next poll.
func (n *Notifier) RefreshScreens(_ context.Context, playlistID *int, identifiers ...string) {
	if n == nil || len(identifiers) == 0 {
		return
	}
	payload, err := json.Marshal(Command{Type: CommandRefresh, PlaylistID: playlistID, Timestamp: n.now().Unix()})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode refresh command")
		return
	}

	for _, identifier := range identifiers {
		token := n.client.Publish(Topic(identifier), qos, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			log.Warn().Str("identifier", identifier).Msg("timed out publishing refresh command")
			continue
		}
		if err := token.Error(); err != nil {
			log.Error().Err(err).Str("identifier", identifier).Msg("failed to publish refresh command")
			continue
		}
		log.Debug().Str("identifier", identifier).Msg("refresh command sent")
	}
}

// Subscribe calls onRefresh whenever a refresh command arrives for the screen.
func Subscribe(client paho.Client, identifier string, onRefresh func()) error {
	token := client.Subscribe(Topic(identifier), qos, func(_ paho.Client, msg paho.Message) {
		var cmd Command
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("ignoring malformed command")
			return
		}
		if cmd.Type != CommandRefresh {
			log.Debug().Str("type", cmd.Type).Msg("ignoring unknown command")
			return
		}
		onRefresh()
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out subscribing to %s", Topic(identifier))
	}
	return token.Error()
}

func Disconnect(client paho.Client) {
	if client != nil && client.IsConnected() {
		client.Disconnect(disconnectMs)
	}
}
