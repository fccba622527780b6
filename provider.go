package treectx

import "sync"

// providerState is the per-node bookkeeping of an attached provider: its
// protocol listeners and the pairing cleanups keyed by consumer node.
type providerState struct {
	removeConnect    func()
	removeDisconnect func()
	cleanups         map[*Node][]func()
}

// Provide returns a binding that turns a node into a provider of this
// context. While attached, the node answers discovery events from its
// subtree and fans out every Set to its paired consumers. On detach it stops
// answering, drops its store entry, and releases all pairings.
func (c *Context[T]) Provide() Binding {
	return func(n *Node) {
		n.OnAttach(func() { c.attachProvider(n) })
		n.OnDetach(func() { c.detachProvider(n) })
	}
}

func (c *Context[T]) attachProvider(n *Node) {
	st := &providerState{cleanups: make(map[*Node][]func())}

	st.removeConnect = n.addListener(eventConnect, func(ev *Event) {
		c.claim(n, st, ev)
	})

	// A consumer detaching dispatches a disconnect request that bubbles up
	// here; run its pairing cleanups. A disconnect whose pairing is already
	// gone is a no-op.
	st.removeDisconnect = n.addListener(eventDisconnect, func(ev *Event) {
		if ev.token != c.token {
			return
		}
		peer, err := SafeTypeAssertion[*Node](ev.detail)
		if err != nil || peer == nil {
			return
		}
		for _, cleanup := range st.cleanups[peer] {
			cleanup()
		}
		delete(st.cleanups, peer)
	})

	c.mu.Lock()
	c.providers[n] = st
	c.mu.Unlock()
}

// claim handles one discovery event. Events stamped by other contexts are
// ignored so they keep bubbling toward their own provider. A matching event
// stops propagating first-responder-wins, but counts as claimed only once
// the pairing completes: an extension that aborts the claim leaves the
// consumer on its retry schedule.
func (c *Context[T]) claim(n *Node, st *providerState, ev *Event) {
	if ev.token != c.token {
		return
	}
	ev.StopPropagation()

	detail, err := SafeTypeAssertion[*connectDetail](ev.detail)
	if err != nil || detail == nil {
		return
	}

	op := &Operation{Kind: OpClaim, Context: c, Node: n, Peer: detail.consumer}
	_ = runExtensions(n, op, func() error {
		removeUpdate := n.addListener(eventUpdate, func(uev *Event) {
			if uev.token == c.token {
				detail.onUpdate(uev.detail)
			}
		})

		var once sync.Once
		cleanup := func() {
			once.Do(func() {
				removeUpdate()
				c.pairings.remove(n, detail.consumer)
			})
		}
		st.cleanups[detail.consumer] = append(st.cleanups[detail.consumer], cleanup)
		c.pairings.add(n, detail.consumer)
		detail.registerDisconnect(cleanup)

		// Sync the new consumer immediately so it never misses the first
		// value.
		detail.onUpdate(c.Get(n))
		ev.claimed = true
		return nil
	})
}

func (c *Context[T]) detachProvider(n *Node) {
	c.mu.Lock()
	st, ok := c.providers[n]
	delete(c.providers, n)
	c.mu.Unlock()
	if !ok {
		return
	}

	st.removeConnect()
	st.removeDisconnect()
	for peer, cleanups := range st.cleanups {
		for _, cleanup := range cleanups {
			cleanup()
		}
		delete(st.cleanups, peer)
	}

	// Consumers queried afresh now fall back to the default, or re-pair with
	// an ancestor provider on their next attach cycle.
	c.store.delete(n)
}

// pairingTable tracks live provider/consumer pairings as a two-way adjacency
// list: a provider maps to its consumers in registration order, a consumer
// maps to its single provider.
type pairingTable struct {
	mu         sync.RWMutex
	downstream map[*Node][]*Node
	upstream   map[*Node]*Node
}

func newPairingTable() *pairingTable {
	return &pairingTable{
		downstream: make(map[*Node][]*Node),
		upstream:   make(map[*Node]*Node),
	}
}

func (p *pairingTable) add(provider, consumer *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downstream[provider] = append(p.downstream[provider], consumer)
	p.upstream[consumer] = provider
}

func (p *pairingTable) remove(provider, consumer *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downstream[provider] = removeElement(p.downstream[provider], consumer)
	if len(p.downstream[provider]) == 0 {
		delete(p.downstream, provider)
	}
	if p.upstream[consumer] == provider {
		delete(p.upstream, consumer)
	}
}

func (p *pairingTable) consumers(provider *Node) []*Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Node, len(p.downstream[provider]))
	copy(out, p.downstream[provider])
	return out
}

func (p *pairingTable) providerOf(consumer *Node) (*Node, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prov, ok := p.upstream[consumer]
	return prov, ok
}
