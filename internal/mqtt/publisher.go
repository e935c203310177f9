// Package mqtt publishes stored readings to an MQTT broker for dashboards
// and other home-automation consumers.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"pool-logger/internal/config"
	"pool-logger/internal/types"
)

// Shortened by tests so a broker coming up late is found quickly.
var connectRetryInterval = 5 * time.Second

type Publisher struct {
	client paho.Client
	topic  string
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{
		topic:  cfg.MQTTTopic,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = paho.NewClient(opts)
	return p
}

// Connect establishes the broker connection, honoring ctx cancellation
// while the attempt is in flight. On cancellation the client's own
// connect-retry loop keeps running, so an unreachable broker at startup is
// picked up once it comes back.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			p.setConnected(true)
			return nil
		}

		select {
		case <-ctx.Done():
			// No Disconnect here: that would cancel the retry loop and
			// leave the publisher dead for the rest of the process.
			return ctx.Err()
		case <-p.stopCh:
			p.client.Disconnect(0)
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

func (p *Publisher) Name() string { return "mqtt" }

// Publish sends one message per reading to <topic>/<system_id> at QoS 1.
func (p *Publisher) Publish(ctx context.Context, readings []types.Reading) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	for _, reading := range readings {
		payload, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("encode reading for %s: %w", reading.SystemID, err)
		}

		topic := p.topic + "/" + reading.SystemID
		token := p.client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("publish timeout for topic %s", topic)
		}
		if token.Error() != nil {
			return fmt.Errorf("publish to %s: %w", topic, token.Error())
		}
		p.logger.Debug("published reading", "topic", topic, "system_id", reading.SystemID)
	}
	return nil
}

// Disconnect closes the broker connection. Idempotent.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
