package treectx

import "sync"

// DerivedContext is a context whose value is recomputed from N upstream
// contexts through a pure derivation function. Externally it behaves like
// any other context and consumers pair with it the usual way, but its value
// is only ever set internally by the aggregation.
//
// Per providing node the aggregation is a small state machine: not-ready
// until every upstream has delivered at least one value, then ready, with
// the derivation re-run synchronously on each later upstream arrival in
// arrival order. Detaching the providing node releases the upstream watches
// and resets the state so the node can re-attach.
type DerivedContext[R any] struct {
	*Context[R]

	inputs []AnyContext
	derive func([]any) any

	mu     sync.Mutex
	states map[*Node]*derivedState
}

type derivedState struct {
	slots   []any
	seen    []bool
	ready   bool
	unwatch []func()
}

func newDerived[R any](name string, inputs []AnyContext, derive func([]any) any, opts ...ContextOption[R]) *DerivedContext[R] {
	defaults := make([]any, len(inputs))
	for i, in := range inputs {
		defaults[i] = in.DefaultAny()
	}
	// The derived default is the derivation over the upstream defaults,
	// computed eagerly so Get answers correctly before any provider exists.
	def := derive(defaults).(R)

	return &DerivedContext[R]{
		Context: New(name, def, opts...),
		inputs:  inputs,
		derive:  derive,
		states:  make(map[*Node]*derivedState),
	}
}

// Provide returns a binding that makes a node provide the derived context.
// While attached, the node consumes each upstream context (pairing with the
// nearest ancestor provider of each, retrying until found) and pushes every
// freshly derived value through the normal Set path, inheriting its equality
// suppression.
func (d *DerivedContext[R]) Provide() Binding {
	return func(n *Node) {
		n.OnAttach(func() { d.attach(n) })
		n.OnDetach(func() { d.detach(n) })
		// Applied last so the base provider hooks run first on attach: the
		// node must already answer as a provider when the first upstream
		// values arrive synchronously.
		d.Context.Provide()(n)
	}
}

func (d *DerivedContext[R]) attach(n *Node) {
	st := &derivedState{
		slots:   make([]any, len(d.inputs)),
		seen:    make([]bool, len(d.inputs)),
		unwatch: make([]func(), len(d.inputs)),
	}
	d.mu.Lock()
	d.states[n] = st
	d.mu.Unlock()

	for i, in := range d.inputs {
		i := i
		st.unwatch[i] = in.watchAny(n, func(v any) {
			d.onUpstream(n, i, v)
		})
	}
}

func (d *DerivedContext[R]) detach(n *Node) {
	d.mu.Lock()
	st, ok := d.states[n]
	delete(d.states, n)
	d.mu.Unlock()
	if !ok {
		return
	}
	for _, unwatch := range st.unwatch {
		if unwatch != nil {
			unwatch()
		}
	}
}

func (d *DerivedContext[R]) onUpstream(n *Node, i int, v any) {
	d.mu.Lock()
	st, ok := d.states[n]
	if !ok {
		// Upstream delivery after detach; the watch is already released.
		d.mu.Unlock()
		return
	}
	st.slots[i] = v
	if !st.ready {
		st.seen[i] = true
		st.ready = allSeen(st.seen)
	}
	if !st.ready {
		d.mu.Unlock()
		return
	}
	vals := make([]any, len(st.slots))
	copy(vals, st.slots)
	d.mu.Unlock()

	out := d.derive(vals).(R)
	// Equal results are suppressed by the Set path like any provider update.
	_ = d.Context.Set(n, out)
}

func allSeen(seen []bool) bool {
	for _, s := range seen {
		if !s {
			return false
		}
	}
	return true
}

// DerivedN composes any number of upstream contexts into one derived context
// whose value is derive applied to the latest upstream values, in input
// order. Prefer the typed Derived1..Derived4 constructors where arity
// allows.
func DerivedN(name string, inputs []AnyContext, derive func(values []any) any) *DerivedContext[any] {
	return newDerived[any](name, inputs, derive)
}

// Derived1 composes a single upstream context through a pure mapping.
func Derived1[R any, D1 any](
	name string,
	d1 *Context[D1],
	derive func(D1) R,
) *DerivedContext[R] {
	return newDerived[R](name, []AnyContext{d1}, func(vals []any) any {
		return derive(vals[0].(D1))
	})
}

// Derived2 composes two upstream contexts through a pure derivation.
func Derived2[R any, D1 any, D2 any](
	name string,
	d1 *Context[D1],
	d2 *Context[D2],
	derive func(D1, D2) R,
) *DerivedContext[R] {
	return newDerived[R](name, []AnyContext{d1, d2}, func(vals []any) any {
		return derive(vals[0].(D1), vals[1].(D2))
	})
}

// Derived3 composes three upstream contexts through a pure derivation.
func Derived3[R any, D1 any, D2 any, D3 any](
	name string,
	d1 *Context[D1],
	d2 *Context[D2],
	d3 *Context[D3],
	derive func(D1, D2, D3) R,
) *DerivedContext[R] {
	return newDerived[R](name, []AnyContext{d1, d2, d3}, func(vals []any) any {
		return derive(vals[0].(D1), vals[1].(D2), vals[2].(D3))
	})
}

// Derived4 composes four upstream contexts through a pure derivation.
func Derived4[R any, D1 any, D2 any, D3 any, D4 any](
	name string,
	d1 *Context[D1],
	d2 *Context[D2],
	d3 *Context[D3],
	d4 *Context[D4],
	derive func(D1, D2, D3, D4) R,
) *DerivedContext[R] {
	return newDerived[R](name, []AnyContext{d1, d2, d3, d4}, func(vals []any) any {
		return derive(vals[0].(D1), vals[1].(D2), vals[2].(D3), vals[3].(D4))
	})
}
