// Package ingest receives real sensor readings over MQTT and routes
// them into the sensor registry. Field gateways publish one JSON
// reading per message to citysense/readings/<sensorId>.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"citysense/internal/config"
	"citysense/internal/metrics"
	"citysense/internal/models"
)

// ReadingSink is the registry-side ingestion entry point.
type ReadingSink interface {
	IngestReading(ctx context.Context, sensorID string, value float64, at time.Time) error
}

// readingMessage is the wire payload. SensorID is optional; when
// absent it is taken from the topic's last segment.
type readingMessage struct {
	SensorID   string     `json:"sensorId,omitempty"`
	Value      *float64   `json:"value"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// Consumer subscribes to the readings topic and feeds the sink.
type Consumer struct {
	client mqtt.Client
	cfg    config.MQTTConfig
	sink   ReadingSink
	logger *zap.Logger
}

// NewConsumer connects to the broker. An empty broker address returns
// nil, meaning MQTT ingestion is disabled for this deployment.
func NewConsumer(cfg config.MQTTConfig, sink ReadingSink, logger *zap.Logger) (*Consumer, error) {
	if cfg.Broker == "" {
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Consumer{client: client, cfg: cfg, sink: sink, logger: logger}, nil
}

// Start subscribes to the readings topic. Handler errors are logged,
// never fatal to the subscription.
func (c *Consumer) Start(ctx context.Context) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := c.handleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
			metrics.ReadingsIngestedTotal.WithLabelValues("mqtt", "rejected").Inc()
			c.logger.Warn("failed to handle reading message",
				zap.String("topic", msg.Topic()),
				zap.Error(err))
			return
		}
		metrics.ReadingsIngestedTotal.WithLabelValues("mqtt", "accepted").Inc()
	}
	if token := c.client.Subscribe(c.cfg.Topic, c.cfg.QoS, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.Topic, token.Error())
	}
	c.logger.Info("mqtt ingestion started",
		zap.String("broker", c.cfg.Broker),
		zap.String("topic", c.cfg.Topic))
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (c *Consumer) Stop() {
	if token := c.client.Unsubscribe(c.cfg.Topic); token.Wait() && token.Error() != nil {
		c.logger.Warn("failed to unsubscribe", zap.Error(token.Error()))
	}
	c.client.Disconnect(250)
	c.logger.Info("mqtt ingestion stopped")
}

func (c *Consumer) handleMessage(ctx context.Context, topic string, payload []byte) error {
	var msg readingMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal reading: %w", err)
	}

	sensorID := msg.SensorID
	if sensorID == "" {
		sensorID = sensorIDFromTopic(topic)
	}
	if sensorID == "" {
		return fmt.Errorf("reading carries no sensor id: %w", models.ErrInvalidInput)
	}
	if msg.Value == nil {
		return fmt.Errorf("reading carries no value: %w", models.ErrInvalidInput)
	}

	at := time.Now().UTC()
	if msg.RecordedAt != nil {
		at = msg.RecordedAt.UTC()
	}
	return c.sink.IngestReading(ctx, sensorID, *msg.Value, at)
}

// sensorIDFromTopic extracts the trailing segment of
// citysense/readings/<sensorId>.
func sensorIDFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}
