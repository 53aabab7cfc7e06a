// Package eventbus is an in-process publish/subscribe bus standing in for
// the runtime-loadable module/event system original_source builds on
// dlopen'd modules and interface::Server::sub_event/emit_event — Go has no
// equivalent plugin loader, so the same named-event contract is modeled as
// plain in-process dispatch instead.
package eventbus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gekko3d/voxelcore/logging"
)

// Event carries a name and an opaque payload; handlers type-assert Payload
// to whatever concrete type the named event is documented to carry.
type Event struct {
	Name    string
	Payload any
}

// Handler processes one event. A handler must not panic the caller's event
// loop: Bus.Emit recovers and logs per-handler panics so dispatch always
// finishes visiting every subscriber.
type Handler func(Event)

// Bus is the event dispatcher. Emit runs handlers synchronously on the
// caller's goroutine, matching the owner-thread-only dispatch model: every
// subscriber for core:tick, core:start, etc. is expected to run on the
// single owner thread.
type Bus struct {
	logger logging.Logger

	mu   sync.Mutex
	subs map[string]map[uuid.UUID]Handler

	deferredMu sync.Mutex
	deferred   []Event
}

func NewBus(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Bus{logger: logger, subs: make(map[string]map[uuid.UUID]Handler)}
}

// Subscribe registers h for name and returns a token usable with
// Unsubscribe. Tokens are uuids rather than sequential ints so subscription
// handles never collide across separate Bus instances in tests.
func (b *Bus) Subscribe(name string, h Handler) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := uuid.New()
	m, ok := b.subs[name]
	if !ok {
		m = make(map[uuid.UUID]Handler)
		b.subs[name] = m
	}
	m[token] = h
	return token
}

// Unsubscribe removes the handler previously returned by Subscribe.
func (b *Bus) Unsubscribe(name string, token uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.subs[name]; ok {
		delete(m, token)
	}
}

// Emit dispatches ev to every current subscriber of ev.Name. The event loop
// is never unwound by a handler failure: each handler call is individually
// recovered and logged.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[ev.Name]))
	for _, h := range b.subs[ev.Name] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.callSafely(ev, h)
	}
}

func (b *Bus) callSafely(ev Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("eventbus: handler for %q panicked: %v", ev.Name, r)
		}
	}()
	h(ev)
}

// DeferUntilReplicationSync queues ev to fire on the next call to
// FireDeferred instead of immediately, matching the commit protocol's
// requirement that node_voxel_data_updated only fires after the next
// replication pass so listeners can assume the bytes are already
// replicated.
func (b *Bus) DeferUntilReplicationSync(ev Event) {
	b.deferredMu.Lock()
	b.deferred = append(b.deferred, ev)
	b.deferredMu.Unlock()
}

// FireDeferred emits every event queued by DeferUntilReplicationSync since
// the last call, in submission order, then clears the queue. The owner
// thread calls this once per replication pass.
func (b *Bus) FireDeferred() {
	b.deferredMu.Lock()
	pending := b.deferred
	b.deferred = nil
	b.deferredMu.Unlock()

	for _, ev := range pending {
		b.Emit(ev)
	}
}
