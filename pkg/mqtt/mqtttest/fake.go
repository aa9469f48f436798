// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/vitrine-io/vitrine/pkg/mqtt"
)

// Message is a recorded publish.
type Message struct {
	Topic   string
	QoS     int
	Retain  bool
	Payload []byte
}

// Client records publishes and lets tests deliver messages to subscribers.
type Client struct {
	mu            sync.Mutex
	started       bool
	connected     bool
	published     []Message
	subscriptions map[string]mqtt.MessageHandler

	// PublishErr, when set, is returned by every Publish.
	PublishErr error
}

var _ mqtt.Client = (*Client)(nil)

func NewClient() *Client {
	return &Client{subscriptions: map[string]mqtt.MessageHandler{}}
}

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started, c.connected = true, true
	return nil
}

func (c *Client) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *Client) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return c.PublishErr
	}
	c.published = append(c.published, Message{Topic: topic, QoS: qos, Retain: retain, Payload: payload})
	return nil
}

func (c *Client) Subscribe(ctx context.Context, topic string, qos int, handler mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return errors.New("client not started")
	}
	c.subscriptions[topic] = handler
	return nil
}

func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, topic)
	return nil
}

func (c *Client) AwaitConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return errors.New("client not started")
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Published returns a copy of every recorded publish.
func (c *Client) Published() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.published...)
}

// Subscribed reports whether a handler is registered for the exact filter.
func (c *Client) Subscribed(filter string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[filter]
	return ok
}

// Deliver synchronously runs every handler whose filter matches topic and reports how many ran.
func (c *Client) Deliver(ctx context.Context, topic string, payload []byte) int {
	c.mu.Lock()
	var handlers []mqtt.MessageHandler
	for filter, h := range c.subscriptions {
		if match(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ctx, topic, payload)
	}
	return len(handlers)
}

func match(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, part := range fp {
		if part == "#" {
			return true
		}
		if i >= len(tp) || (part != "+" && part != tp[i]) {
			return false
		}
	}
	return len(fp) == len(tp)
}
