// Package telemetry mirrors blinker diagnostic records to an MQTT broker.
// It is advisory: the device never waits on it and a missing broker only
// costs dropped records.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/JasonSeba/sample-ble/blinker"
	"github.com/JasonSeba/sample-ble/internal/config"
)

const (
	queueLen       = 64
	publishTimeout = 2 * time.Second
)

// publisher is the part of mqtt.Client the Publisher uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the JSON body published for each record.
type Message struct {
	Device string `json:"device"`
	blinker.Record
}

// Publisher forwards records from the device loop to MQTT on its own goroutine.
type Publisher struct {
	client  mqtt.Client
	pub     publisher
	topic   string
	device  string
	toggles bool
	log     *slog.Logger

	queue   chan blinker.Record
	dropped atomic.Uint32
}

// Topic returns the events topic for a device.
func Topic(prefix, device string) string {
	return prefix + "/" + device + "/events"
}

func New(cfg config.Config, logger *slog.Logger) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	client := mqtt.NewClient(opts)
	p := newPublisher(client, cfg.MQTTTopicPrefix, cfg.LocalName, cfg.LogLevel <= slog.LevelDebug, logger)
	p.client = client
	return p
}

func newPublisher(pub publisher, prefix, device string, toggles bool, logger *slog.Logger) *Publisher {
	return &Publisher{
		pub:     pub,
		topic:   Topic(prefix, device),
		device:  device,
		toggles: toggles,
		log:     logger,
		queue:   make(chan blinker.Record, queueLen),
	}
}

// Connect waits for the first broker connection, honouring ctx.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Disconnect closes the broker connection.
func (p *Publisher) Disconnect() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}

// Notify queues a record. It never blocks and is safe to pass as
// blinker.Options.Notify. Toggle records are skipped unless enabled.
func (p *Publisher) Notify(r blinker.Record) {
	if r.Kind == blinker.RecordToggle && !p.toggles {
		return
	}
	select {
	case p.queue <- r:
	default:
		p.dropped.Add(1)
	}
}

// Dropped is the number of records discarded because the queue was full.
func (p *Publisher) Dropped() uint32 { return p.dropped.Load() }

// Run publishes queued records until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-p.queue:
			if err := p.publish(r); err != nil {
				p.log.Warn("telemetry publish failed", "kind", r.Kind, "err", err)
			}
		}
	}
}

func (p *Publisher) publish(r blinker.Record) error {
	body, err := json.Marshal(Message{Device: p.device, Record: r})
	if err != nil {
		return err
	}
	token := p.pub.Publish(p.topic, 0, false, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	return token.Error()
}
