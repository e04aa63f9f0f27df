package dice

import (
	"cmp"
	"slices"

	"github.com/akmonengine/dice/actor"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	ON_SETTLE
	ON_WAKE
	ON_DEGENERATE
)

type pairKey struct {
	handleA BodyHandle
	handleB BodyHandle
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(handleA, handleB BodyHandle) pairKey {
	if handleB < handleA {
		handleA, handleB = handleB, handleA
	}

	return pairKey{handleA: handleA, handleB: handleB}
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Collision events, between two dice
type CollisionEnterEvent struct {
	HandleA, HandleB BodyHandle
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	HandleA, HandleB BodyHandle
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	HandleA, HandleB BodyHandle
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// SettleEvent is sent once a die has come to rest
type SettleEvent struct {
	Handle BodyHandle
	Value  actor.FaceValue
}

func (e SettleEvent) Type() EventType { return ON_SETTLE }

// WakeEvent is sent when a settled die starts moving again
type WakeEvent struct {
	Handle BodyHandle
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// DegenerateEvent is sent when a die orientation could not be normalized
type DegenerateEvent struct {
	Handle BodyHandle
}

func (e DegenerateEvent) Type() EventType { return ON_DEGENERATE }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers the events of one Advance and dispatches them at its end
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	settleStates     map[BodyHandle]bool
	degenerateStates map[BodyHandle]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 64),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		settleStates:        make(map[BodyHandle]bool),
		degenerateStates:    make(map[BodyHandle]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact is called during steps for every touching pair
func (e *Events) recordContact(handleA, handleB BodyHandle) {
	e.currentActivePairs[makePairKey(handleA, handleB)] = true
}

// forget drops the tracked state of a removed body
func (e *Events) forget(handle BodyHandle) {
	delete(e.settleStates, handle)
	delete(e.degenerateStates, handle)
	for pair := range e.previousActivePairs {
		if pair.handleA == handle || pair.handleB == handle {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.handleA == handle || pair.handleB == handle {
			delete(e.currentActivePairs, pair)
		}
	}
}

func (e *Events) reset() {
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
	clear(e.settleStates)
	clear(e.degenerateStates)
	e.buffer = e.buffer[:0]
}

// processCollisionEvents compares current and previous pairs to detect
// Enter/Stay/Exit. Pairs are visited in handle order so listeners see a
// reproducible sequence. It must only run after at least one step: with no
// step the current set is empty and every touching pair would exit.
func (e *Events) processCollisionEvents() {
	for _, pair := range sortedPairs(e.currentActivePairs) {
		if e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionStayEvent{HandleA: pair.handleA, HandleB: pair.handleB})
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{HandleA: pair.handleA, HandleB: pair.handleB})
		}
	}

	for _, pair := range sortedPairs(e.previousActivePairs) {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionExitEvent{HandleA: pair.handleA, HandleB: pair.handleB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// processBodyEvents detects settle/wake and degenerate transitions
func (e *Events) processBodyEvents(handles []BodyHandle, bodies []*actor.RigidBody) {
	for i, body := range bodies {
		handle := handles[i]

		trackedState, exists := e.settleStates[handle]
		switch {
		case !exists:
			e.settleStates[handle] = body.IsSettled
		case !trackedState && body.IsSettled:
			value, _ := body.Value()
			e.buffer = append(e.buffer, SettleEvent{Handle: handle, Value: value})
			e.settleStates[handle] = true
		case trackedState && !body.IsSettled:
			e.buffer = append(e.buffer, WakeEvent{Handle: handle})
			e.settleStates[handle] = false
		}

		if body.Degenerate && !e.degenerateStates[handle] {
			e.buffer = append(e.buffer, DegenerateEvent{Handle: handle})
		}
		e.degenerateStates[handle] = body.Degenerate
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}

func sortedPairs(pairs map[pairKey]bool) []pairKey {
	keys := make([]pairKey, 0, len(pairs))
	for pair := range pairs {
		keys = append(keys, pair)
	}
	slices.SortFunc(keys, func(a, b pairKey) int {
		if a.handleA != b.handleA {
			return cmp.Compare(a.handleA, b.handleA)
		}
		return cmp.Compare(a.handleB, b.handleB)
	})
	return keys
}
