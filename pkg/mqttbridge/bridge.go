// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

// Package mqttbridge republishes gateway status snapshots to an MQTT
// broker, one JSON document per device partition.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/hearthwire/otgw/pkg/otgw"
)

const (
	defaultKeepAlive  = 60 * time.Second
	defaultRetryDelay = 5 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds, paho's own unit
)

// Config describes the broker connection and topic layout.
type Config struct {
	// BrokerURL is the paho broker address, e.g. "tcp://localhost:1883".
	BrokerURL string
	// ClientID identifies this bridge to the broker.
	ClientID string
	Username string
	Password string
	// TopicPrefix is prepended to all published topics. The bridge
	// publishes <prefix>/status plus <prefix>/<partition>.
	TopicPrefix string
	// QoS for all publishes.
	QoS byte
}

// Bridge subscribes to a Gateway's status updates and mirrors them to MQTT.
// The availability topic carries "online"/"offline" with a Last Will so the
// broker marks the bridge offline on an unclean disconnect.
type Bridge struct {
	client paho.Client
	cfg    Config
	gw     *otgw.Gateway
	sub    *otgw.Subscription
	log    *zap.SugaredLogger
}

// New creates a bridge for the given gateway. Connect must be called before
// snapshots flow.
func New(cfg Config, gw *otgw.Gateway, log *zap.SugaredLogger) *Bridge {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "otgw"
	}
	b := &Bridge{cfg: cfg, gw: gw, log: log}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetWill(b.statusTopic(), "offline", cfg.QoS, true)
	opts.SetOnConnectHandler(func(client paho.Client) {
		log.Info("connected to MQTT broker")
		if token := client.Publish(b.statusTopic(), cfg.QoS, true, "online"); token.Wait() && token.Error() != nil {
			log.Warnw("could not publish online status", "error", token.Error())
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Errorw("MQTT connection lost", "error", err)
	})
	b.client = paho.NewClient(opts)
	return b
}

func (b *Bridge) statusTopic() string {
	return b.cfg.TopicPrefix + "/status"
}

// Connect dials the broker, retrying until ctx is cancelled, then
// subscribes to gateway status updates.
func (b *Bridge) Connect(ctx context.Context) error {
	attempt := 1
	for {
		b.log.Debugw("connecting to MQTT broker", "attempt", attempt)
		token := b.client.Connect()
		token.Wait()
		if token.Error() == nil {
			b.sub = b.gw.Subscribe(b.publishSnapshot)
			return nil
		}
		b.log.Errorw("MQTT connection failed, will keep trying",
			"attempt", attempt, "error", token.Error())
		select {
		case <-ctx.Done():
			return fmt.Errorf("mqtt connect cancelled: %w", ctx.Err())
		case <-time.After(defaultRetryDelay):
			attempt++
		}
	}
}

// Close unsubscribes from the gateway, marks the bridge offline and
// disconnects from the broker.
func (b *Bridge) Close() {
	if b.sub != nil {
		b.gw.Unsubscribe(b.sub)
		b.sub = nil
	}
	if b.client.IsConnected() {
		if token := b.client.Publish(b.statusTopic(), b.cfg.QoS, true, "offline"); token.Wait() && token.Error() != nil {
			b.log.Warnw("could not publish offline status", "error", token.Error())
		}
		b.client.Disconnect(disconnectQuiesce)
	}
}

// publishSnapshot mirrors one snapshot: each partition becomes a retained
// JSON document on its own topic.
func (b *Bridge) publishSnapshot(snap otgw.Snapshot) {
	for part, fields := range snap {
		payload, err := json.Marshal(fields)
		if err != nil {
			b.log.Errorw("could not encode partition", "partition", part, "error", err)
			continue
		}
		topic := fmt.Sprintf("%s/%s", b.cfg.TopicPrefix, part)
		token := b.client.Publish(topic, b.cfg.QoS, true, payload)
		if !token.WaitTimeout(publishTimeout) {
			b.log.Warnw("publish timed out", "topic", topic)
			continue
		}
		if err := token.Error(); err != nil {
			b.log.Errorw("publish failed", "topic", topic, "error", err)
		}
	}
}
