package application

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const eventBufferSize = 128

// Event is published to the listeners every time the state of the account
// or connection service changes.
type Event struct {
	Type              string      `json:"type"`
	Address           string      `json:"address,omitempty"`
	RootTokenContract string      `json:"rootTokenContract,omitempty"`
	Payload           interface{} `json:"payload,omitempty"`
}

// eventBus fans out events to the registered listeners. Slow listeners lose
// events instead of blocking the publisher.
type eventBus struct {
	lock      sync.RWMutex
	listeners map[string]chan Event
}

func newEventBus() *eventBus {
	return &eventBus{listeners: make(map[string]chan Event)}
}

func (b *eventBus) register() (<-chan Event, func()) {
	id := uuid.New().String()
	ch := make(chan Event, eventBufferSize)

	b.lock.Lock()
	b.listeners[id] = ch
	b.lock.Unlock()

	var once sync.Once
	unregister := func() {
		once.Do(func() {
			b.lock.Lock()
			defer b.lock.Unlock()
			if ch, ok := b.listeners[id]; ok {
				delete(b.listeners, id)
				close(ch)
			}
		})
	}
	return ch, unregister
}

func (b *eventBus) publish(event Event) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for id, ch := range b.listeners {
		select {
		case ch <- event:
		default:
			log.Debugf("listener %s is lagging, dropped %s event", id, event.Type)
		}
	}
}

func (b *eventBus) close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	for id, ch := range b.listeners {
		delete(b.listeners, id)
		close(ch)
	}
}
