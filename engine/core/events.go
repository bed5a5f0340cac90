package core

import (
	"runtime/debug"
	"sync"
)

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// A scene load was dispatched.
	/* Context usage:
	 * data := ctx.Data.(ResourceEvent)
	 */
	EVENT_CODE_RESOURCE_LOADED SystemEventCode = 0x02

	// A scene unload was requested.
	/* Context usage:
	 * data := ctx.Data.(ResourceEvent), Kind is left zero.
	 */
	EVENT_CODE_RESOURCE_UNLOADED SystemEventCode = 0x03

	// Every operation of a group settled and the active scene was selected.
	/* Context usage:
	 * data := ctx.Data.(GroupEvent)
	 */
	EVENT_CODE_GROUP_LOADED SystemEventCode = 0x04

	// The previous group finished tearing down.
	/* Context usage:
	 * data := ctx.Data.(GroupEvent)
	 */
	EVENT_CODE_GROUP_UNLOADED SystemEventCode = 0x05

	// A definition file on disk changed.
	/* Context usage:
	 * path := ctx.Data.(string)
	 */
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x06

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// ResourceEvent is the payload of the per-resource events.
// Kind holds a groups.ResourceKind value.
type ResourceEvent struct {
	Name string
	Kind int
}

// GroupEvent is the payload of the group events.
type GroupEvent struct {
	Name string
}

type FnOnEvent func(ctx EventContext)

type registeredEvent struct {
	id       string
	callback FnOnEvent
}

// EventSystem is an ordered publish/subscribe registry. Listeners for a code
// are invoked synchronously in registration order.
type EventSystem struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
}

// Register listens for events fired with the provided code and returns the
// subscription id needed to unregister.
func (es *EventSystem) Register(code SystemEventCode, onEvent FnOnEvent) string {
	es.mu.Lock()
	defer es.mu.Unlock()

	id := IdentifierAcquireNewID()
	es.registered[code] = append(es.registered[code], registeredEvent{
		id:       id,
		callback: onEvent,
	})
	return id
}

// Unregister removes a subscription. Returns false if the id is unknown.
func (es *EventSystem) Unregister(id string) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	for code, events := range es.registered {
		for i, e := range events {
			if e.id == id {
				es.registered[code] = append(events[:i:i], events[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Fire delivers the event to every listener of ctx.Type. A panicking listener
// is logged and skipped. Returns the number of listeners invoked.
func (es *EventSystem) Fire(ctx EventContext) int {
	es.mu.RLock()
	events := make([]registeredEvent, len(es.registered[ctx.Type]))
	copy(events, es.registered[ctx.Type])
	es.mu.RUnlock()

	for _, e := range events {
		es.safeCall(e, ctx)
	}
	return len(events)
}

func (es *EventSystem) safeCall(e registeredEvent, ctx EventContext) {
	defer func() {
		if r := recover(); r != nil {
			LogError("event listener %s panicked for code %d: %v\n%s", IdentifierShort(e.id), ctx.Type, r, debug.Stack())
		}
	}()
	e.callback(ctx)
}

// ListenerCount returns the number of listeners registered for code.
func (es *EventSystem) ListenerCount(code SystemEventCode) int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return len(es.registered[code])
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[SystemEventCode][]registeredEvent)
	return nil
}
