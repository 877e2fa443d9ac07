package events

import (
	"context"
	"sync"

	"github.com/Atuoha/Ghost/internal/domain"
)

type Name string

const (
	EmailCreated Name = "email.created"
	EmailEdited  Name = "email.edited"
)

// EmitContext describes the origin of an emit. Importing marks bulk content
// imports, which must never trigger live sends.
type EmitContext struct {
	Importing bool
}

// Event carries the dispatch record and, for edits, the status it had before
// the edit so subscribers can detect exact transitions.
type Event struct {
	Name           Name
	Email          *domain.Email
	PreviousStatus *domain.Status
	Context        EmitContext
}

type Handler func(ctx context.Context, ev Event)

// Bus is a small synchronous in-process pub/sub. Handlers run on the
// emitter's goroutine and are expected to only enqueue work and return.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Name]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Name]map[int]Handler)}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *Bus) Subscribe(name Name, h Handler) func() {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[name] == nil {
		b.subs[name] = make(map[int]Handler)
	}
	b.subs[name][id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[name], id)
		b.mu.Unlock()
	}
}

func (b *Bus) Emit(ctx context.Context, ev Event) {
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Name]))
	for _, h := range b.subs[ev.Name] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}
