// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// messageBuffer is the number of events a subscriber may fall behind before
// new events are dropped for it.
const messageBuffer = 100

// Event is a single message published by the node.
type Event struct {
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// subscriber is a registered receiver and the topics it wants.
type subscriber struct {
	ch     chan Event
	topics []string
}

// wants reports whether the subscriber asked for the topic. No topics
// means every topic.
func (sub subscriber) wants(topic string) bool {
	if len(sub.topics) == 0 {
		return true
	}

	for _, t := range sub.topics {
		if t == topic {
			return true
		}
	}

	return false
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	mu   sync.RWMutex
	subs map[string]subscriber
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		subs: make(map[string]subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}

// Acquire takes a unique id and an optional set of topics and returns a
// channel that receives the matching events.
func (evt *Events) Acquire(id string, topics ...string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:     make(chan Event, messageBuffer),
		topics: topics,
	}
	evt.subs[id] = sub

	return sub.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return nil
}

// Subscribers returns the number of registered receivers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Send signals an event to every subscriber wanting its topic. Send will
// not block waiting for a receiver on any given channel.
func (evt *Events) Send(topic string, message string) {
	e := Event{
		Topic:   topic,
		Message: message,
		Time:    time.Now().UTC(),
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.subs {
		if !sub.wants(topic) {
			continue
		}

		select {
		case sub.ch <- e:
		default:
		}
	}
}

// Topic returns the topic of a blockchain event message, which is the text
// before the first colon. Messages like "state: Send: started" belong to the
// "state" topic.
func Topic(message string) string {
	topic, _, found := strings.Cut(message, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(topic)
}
