// Package broadcast provides a topic-based publish/subscribe channel for
// streaming progress events to interested observers. Delivery is best-effort
// and ordered per topic; there is no replay buffer, so a subscriber only sees
// messages published after it subscribes.
package broadcast

import (
	"log/slog"
	"sync"
	"time"
)

// Message is a single event delivered to topic subscribers.
type Message struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Subscriber receives messages published to topics it is subscribed to.
// A Send error causes the subscriber to be dropped from that topic.
type Subscriber interface {
	Send(msg Message) error
}

// Channel fans out messages to topic subscribers in subscription order.
// All methods are safe for concurrent use; subscriber-set mutation and
// publish iteration are serialized under one mutex, so a publish never
// observes a half-mutated topic and per-topic delivery order matches
// publish order.
type Channel struct {
	logger *slog.Logger

	mu     sync.Mutex
	topics map[string][]Subscriber
}

// NewChannel creates a Channel whose delivery failures are logged to logger.
func NewChannel(logger *slog.Logger) *Channel {
	return &Channel{
		logger: logger.With("system", "broadcast"),
		topics: make(map[string][]Subscriber),
	}
}

// Subscribe adds sub to topic. A subscriber may join any number of topics;
// duplicate subscriptions to the same topic are ignored.
func (c *Channel) Subscribe(topic string, sub Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.topics[topic] {
		if existing == sub {
			return
		}
	}
	c.topics[topic] = append(c.topics[topic], sub)
}

// Unsubscribe removes sub from every topic it is subscribed to.
func (c *Channel) Unsubscribe(sub Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for topic := range c.topics {
		c.drop(topic, sub)
	}
}

// Publish delivers msg to every current subscriber of topic, in subscription
// order. A failing subscriber is logged and dropped from the topic; delivery
// to the remaining subscribers is unaffected.
func (c *Channel) Publish(topic string, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var failed []Subscriber
	for _, sub := range c.topics[topic] {
		if err := sub.Send(msg); err != nil {
			c.logger.Warn("subscriber send failed, dropping", "topic", topic, "error", err)
			failed = append(failed, sub)
		}
	}
	for _, sub := range failed {
		c.drop(topic, sub)
	}
}

// Subscribers reports the current subscriber count for topic.
func (c *Channel) Subscribers(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.topics[topic])
}

// drop removes sub from topic and prunes the topic when it empties.
// Callers must hold mu.
func (c *Channel) drop(topic string, target Subscriber) {
	subs := c.topics[topic][:0]
	for _, sub := range c.topics[topic] {
		if sub != target {
			subs = append(subs, sub)
		}
	}
	if len(subs) == 0 {
		delete(c.topics, topic)
		return
	}
	c.topics[topic] = subs
}
