package treectx

// consumeConfig carries the per-binding consumer options.
type consumeConfig[T any] struct {
	prop      string
	transform func(T) any
	onMiss    func(componentName string)
}

// ConsumeOption is a modifier for consumer bindings
type ConsumeOption[T any] func(*consumeConfig[T])

// WithProperty sets the property slot the consumer writes received values
// into. Defaults to the context name.
func WithProperty[T any](name string) ConsumeOption[T] {
	return func(cfg *consumeConfig[T]) {
		cfg.prop = name
	}
}

// WithTransform applies fn to every received value before it is assigned to
// the consumer's property slot. Defaults to identity.
func WithTransform[T any](fn func(T) any) ConsumeOption[T] {
	return func(cfg *consumeConfig[T]) {
		cfg.transform = fn
	}
}

// WithOnCouldNotFindProvider installs an informational callback invoked with
// the consumer's component name on every failed discovery attempt past the
// report threshold. Discovery keeps retrying regardless; a missing provider
// is degraded, not fatal.
func WithOnCouldNotFindProvider[T any](fn func(componentName string)) ConsumeOption[T] {
	return func(cfg *consumeConfig[T]) {
		cfg.onMiss = fn
	}
}

// consumerState is one attach cycle's pairing handshake: the retry
// dispatcher driving discovery and, once claimed, the cleanup the provider
// handed back.
type consumerState struct {
	retry   *retryDispatcher
	cleanup func()
}

// Consume returns a binding that turns a node into a consumer of this
// context. On attach the node dispatches a discovery event toward the root
// and retries until the nearest ancestor provider claims it; the provider's
// current value, passed through the transform, lands in the node's property
// slot and is refreshed on every update. On detach the pairing is torn down
// and pending retries are cancelled.
func (c *Context[T]) Consume(opts ...ConsumeOption[T]) Binding {
	cfg := consumeConfig[T]{
		prop:      c.name,
		transform: func(v T) any { return v },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(n *Node) {
		var st *consumerState

		n.OnAttach(func() {
			st = c.startDiscovery(n, cfg)
		})

		n.OnDetach(func() {
			if st == nil {
				return
			}
			c.stopConsumer(n, st)
			st = nil
		})
	}
}

func (c *Context[T]) startDiscovery(n *Node, cfg consumeConfig[T]) *consumerState {
	st := &consumerState{}
	detail := &connectDetail{
		consumer: n,
		onUpdate: func(v any) {
			tv, err := SafeTypeAssertion[T](v)
			if err != nil {
				return
			}
			n.SetProp(cfg.prop, cfg.transform(tv))
		},
		registerDisconnect: func(f func()) { st.cleanup = f },
	}

	st.retry = newRetryDispatcher(n.scheduler(), func() bool {
		return c.dispatchConnect(n, detail)
	}, func(attempt int) {
		if cfg.onMiss != nil {
			cfg.onMiss(n.Name())
		}
		for _, ext := range n.Root().exts {
			ext.OnNoProvider(n, c, attempt)
		}
	})
	st.retry.onStale = func() {
		if st.cleanup != nil {
			st.cleanup()
		}
	}
	st.retry.start()
	return st
}

// stopConsumer tears down one attach cycle: cancel pending retries, run the
// pairing cleanup directly, and dispatch a disconnect request so the paired
// provider drops the registered callback. Both paths are idempotent, so a
// disconnect arriving after cleanup already ran is a no-op.
func (c *Context[T]) stopConsumer(n *Node, st *consumerState) {
	st.retry.stop()

	op := &Operation{Kind: OpDisconnect, Context: c, Node: n}
	_ = runExtensions(n, op, func() error {
		if st.cleanup != nil {
			st.cleanup()
		}
		ev := acquireEvent(eventDisconnect, c.token, n, n)
		n.dispatch(ev)
		releaseEvent(ev)
		return nil
	})
}
