package treectx

import (
	"sync"

	"github.com/google/uuid"
)

// Context is an immutable descriptor for one tree-scoped shared value.
// Identity is the descriptor instance itself: two contexts created with the
// same default are distinct, and their events never cross-pair because each
// context stamps its events with a unique token.
//
// Create contexts once at setup time; they live for the whole process.
type Context[T any] struct {
	token uuid.UUID
	name  string
	def   T
	equal func(a, b T) bool

	store    *nodeStore[T]
	pairings *pairingTable

	mu        sync.Mutex
	providers map[*Node]*providerState
}

// ContextOption is a modifier for contexts
type ContextOption[T any] func(*Context[T])

// WithEqual overrides the context's value-equality predicate. Set uses it to
// suppress redundant propagation.
func WithEqual[T any](eq func(a, b T) bool) ContextOption[T] {
	return func(c *Context[T]) {
		c.equal = eq
	}
}

// New creates a context with the given name and default value. The name is
// used for the consumer property slot and diagnostics; it carries no
// identity.
func New[T any](name string, defaultValue T, opts ...ContextOption[T]) *Context[T] {
	c := &Context[T]{
		token:     uuid.New(),
		name:      name,
		def:       defaultValue,
		equal:     func(a, b T) bool { return Equal(a, b) },
		store:     newNodeStore[T](),
		pairings:  newPairingTable(),
		providers: make(map[*Node]*providerState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the context's name.
func (c *Context[T]) Name() string {
	return c.name
}

// Default returns the context's default value.
func (c *Context[T]) Default() T {
	return c.def
}

// Get returns the provider's current value, or the context default when the
// provider has no entry. It never fails.
func (c *Context[T]) Get(provider *Node) T {
	if v, ok := c.store.load(provider); ok {
		return v
	}
	return c.def
}

// Set stores a new value for the provider and fans it out to every paired
// consumer in registration order. When the new value equals the previous one
// under the context's predicate, Set is a complete no-op: no store mutation,
// no update event. Setting on a node that is not an attached provider of
// this context returns *NotProviderError.
func (c *Context[T]) Set(provider *Node, value T) error {
	c.mu.Lock()
	_, ok := c.providers[provider]
	c.mu.Unlock()
	if !ok {
		return &NotProviderError{Context: c.name, Node: provider.Name()}
	}

	if c.equal(c.Get(provider), value) {
		return nil
	}

	op := &Operation{Kind: OpSet, Context: c, Node: provider, Value: value}
	return runExtensions(provider, op, func() error {
		c.store.store(provider, value)
		c.fanout(provider, value)
		return nil
	})
}

// fanout dispatches a value-update event on the provider node. Consumer
// callbacks registered there receive it in registration order; the event
// does not bubble.
func (c *Context[T]) fanout(provider *Node, value T) {
	ev := acquireEvent(eventUpdate, c.token, value, provider)
	provider.dispatchLocal(ev)
	releaseEvent(ev)
}

// Watch subscribes a handler to the context as seen from node: the nearest
// ancestor provider's current value is delivered synchronously once a
// provider is found (retrying on the discovery schedule until then), and
// again on every change. The returned function unsubscribes and cancels any
// pending discovery retries.
func (c *Context[T]) Watch(node *Node, handler func(T)) (unsubscribe func()) {
	return c.watch(node, func(v any) {
		tv, err := SafeTypeAssertion[T](v)
		if err != nil {
			return
		}
		handler(tv)
	})
}

func (c *Context[T]) watch(node *Node, fn func(any)) func() {
	var cleanup func()
	detail := &connectDetail{
		consumer:           node,
		onUpdate:           fn,
		registerDisconnect: func(f func()) { cleanup = f },
	}
	r := newRetryDispatcher(node.scheduler(), func() bool {
		return c.dispatchConnect(node, detail)
	}, nil)
	r.onStale = func() {
		if cleanup != nil {
			cleanup()
		}
	}
	r.start()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.stop()
			if cleanup != nil {
				cleanup()
			}
		})
	}
}

// dispatchConnect sends one discovery event from node and reports whether a
// provider claimed it.
func (c *Context[T]) dispatchConnect(node *Node, detail *connectDetail) bool {
	ev := acquireEvent(eventConnect, c.token, detail, node)
	node.dispatch(ev)
	claimed := ev.claimed
	releaseEvent(ev)
	return claimed
}

// Consumers returns the consumer nodes currently paired with the provider,
// in registration order.
func (c *Context[T]) Consumers(provider *Node) []*Node {
	return c.pairings.consumers(provider)
}

// ProviderOf returns the provider the consumer node is currently paired
// with, if any.
func (c *Context[T]) ProviderOf(consumer *Node) (*Node, bool) {
	return c.pairings.providerOf(consumer)
}

// IsProvider reports whether the node is an attached provider of this
// context.
func (c *Context[T]) IsProvider(n *Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.providers[n]
	return ok
}

// AnyContext is a type-erased view of a Context. Derived contexts use it to
// aggregate heterogeneous upstreams; extensions use it for diagnostics.
type AnyContext interface {
	Name() string
	DefaultAny() any
	IsProvider(n *Node) bool
	ProviderOf(consumer *Node) (*Node, bool)

	watchAny(node *Node, fn func(any)) func()
}

// DefaultAny returns the context default as an untyped value.
func (c *Context[T]) DefaultAny() any {
	return c.def
}

func (c *Context[T]) watchAny(node *Node, fn func(any)) func() {
	return c.watch(node, fn)
}
