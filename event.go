package treectx

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// The pairing protocol uses three event kinds. Connect and disconnect
// requests bubble from a consumer toward the root; update events are local to
// the provider node that dispatches them.
type eventKind uint8

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventUpdate
)

func (k eventKind) String() string {
	switch k {
	case eventConnect:
		return "connect-request"
	case eventDisconnect:
		return "disconnect-request"
	case eventUpdate:
		return "value-update"
	}
	return "unknown"
}

// Event is one protocol message. The token identifies the context that
// created it; listeners for other contexts ignore events whose token does
// not match, so structurally identical contexts never cross-pair.
type Event struct {
	kind    eventKind
	token   uuid.UUID
	detail  any
	source  *Node
	stopped bool
	claimed bool
}

// StopPropagation prevents the event from bubbling further. The provider
// that claims a connect request must call it so that no ancestor provider
// can also claim the pairing.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// connectDetail is the payload of a connect request.
type connectDetail struct {
	consumer *Node

	// onUpdate is invoked by the claiming provider with the current value,
	// synchronously at claim time, and again on every subsequent change.
	onUpdate func(value any)

	// registerDisconnect is invoked by the claiming provider to hand the
	// consumer a cleanup that unregisters onUpdate. The cleanup is
	// idempotent; running it after the pairing is already gone is a no-op.
	registerDisconnect func(cleanup func())
}

// Events are short-lived and allocated on every dispatch and retry attempt,
// so they are pooled.
var eventPool = sync.Pool{
	New: func() any {
		eventPoolMisses.Add(1)
		return &Event{}
	},
}

var (
	eventPoolGets   atomic.Uint64
	eventPoolMisses atomic.Uint64
)

func acquireEvent(kind eventKind, token uuid.UUID, detail any, source *Node) *Event {
	eventPoolGets.Add(1)
	ev := eventPool.Get().(*Event)
	ev.kind = kind
	ev.token = token
	ev.detail = detail
	ev.source = source
	ev.stopped = false
	ev.claimed = false
	return ev
}

func releaseEvent(ev *Event) {
	ev.detail = nil
	ev.source = nil
	eventPool.Put(ev)
}

// EventPoolStats reports how many event dispatches reused a pooled Event
// versus allocating a fresh one.
func EventPoolStats() (hits, misses uint64) {
	gets, m := eventPoolGets.Load(), eventPoolMisses.Load()
	return gets - m, m
}
