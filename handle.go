package treectx

// Handle provides value access for one provider node of a context.
type Handle[T any] struct {
	ctx  *Context[T]
	node *Node
}

// Accessor creates a handle for a provider node
func Accessor[T any](c *Context[T], provider *Node) *Handle[T] {
	return &Handle[T]{ctx: c, node: provider}
}

// Get retrieves the current value, falling back to the context default
func (h *Handle[T]) Get() T {
	return h.ctx.Get(h.node)
}

// Peek retrieves the stored value without the default fallback
func (h *Handle[T]) Peek() (T, bool) {
	return h.ctx.store.load(h.node)
}

// Set stores a new value and propagates it to paired consumers
func (h *Handle[T]) Set(value T) error {
	return h.ctx.Set(h.node, value)
}

// IsSet checks whether the provider currently holds a stored value
func (h *Handle[T]) IsSet() bool {
	_, ok := h.ctx.store.load(h.node)
	return ok
}
