package sparsecs

import "reflect"

// EntitySpawned is published by World.Spawn.
type EntitySpawned struct {
	Entity Entity
}

// EntityDespawned is published by World.Despawn when the entity's index was
// allocated.
type EntityDespawned struct {
	Entity Entity
}

// StorageCreated is published the first time a component type is inserted
// into a World.
type StorageCreated struct {
	Type reflect.Type
}

// EventBus delivers typed events to subscribed handlers synchronously, in
// subscription order. The World publishes its lifecycle events on one; a
// zero EventBus is ready to use.
type EventBus struct {
	handlers map[reflect.Type][]subscription
	nextID   uint64
}

type subscription struct {
	id      uint64
	handler any
}

// Subscribe registers handler for events of type T and returns a function
// that removes it again.
func Subscribe[T any](bus *EventBus, handler func(T)) (unsubscribe func()) {
	t := typeOf[T]()
	if bus.handlers == nil {
		bus.handlers = make(map[reflect.Type][]subscription)
	}
	bus.nextID++
	id := bus.nextID
	bus.handlers[t] = append(bus.handlers[t], subscription{id: id, handler: handler})
	return func() {
		subs := bus.handlers[t]
		for i, s := range subs {
			if s.id == id {
				bus.handlers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every handler subscribed to T with event.
func Publish[T any](bus *EventBus, event T) {
	if len(bus.handlers) == 0 {
		return
	}
	for _, s := range bus.handlers[typeOf[T]()] {
		s.handler.(func(T))(event)
	}
}

// Subscribers returns the number of handlers subscribed to T.
func Subscribers[T any](bus *EventBus) int {
	return len(bus.handlers[typeOf[T]()])
}
