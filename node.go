package treectx

// Node is one element of a component tree. It stands in for the host
// framework's component type: it exposes the two lifecycle hooks (attach and
// detach) that bindings wrap, a per-node listener table with bubbling event
// dispatch, and equality-gated property slots that consumer bindings write
// into.
//
// A Node is confined to one goroutine. The only code that re-enters the tree
// from elsewhere is TimerScheduler's retry callbacks; embedders that rely on
// timed discovery retries must either serialize access externally or pump a
// StepScheduler from their own loop.
type Node struct {
	parent   *Node
	children []*Node
	attached bool

	onAttach func()
	onDetach func()

	listeners map[eventKind][]*listener
	props     map[string]any
	tags      map[any]any

	// set on roots only
	sched Scheduler
	exts  []Extension
}

type listener struct {
	fn func(*Event)
}

// Binding attaches context behavior to a node by wrapping its lifecycle
// hooks. Bindings returned by Context.Provide and Context.Consume must be
// applied before the node attaches.
type Binding func(*Node)

// WithScheduler returns a binding that sets the discovery retry scheduler
// for the node's subtree. It is meaningful on root nodes only; descendants
// inherit it.
func WithScheduler(s Scheduler) Binding {
	return func(n *Node) {
		n.sched = s
	}
}

// NewNode creates a detached node and applies the given bindings.
func NewNode(name string, bindings ...Binding) *Node {
	n := &Node{
		listeners: make(map[eventKind][]*listener),
		props:     make(map[string]any),
		tags:      make(map[any]any),
	}
	NameTag.Set(n, name)
	n.Apply(bindings...)
	return n
}

// Apply applies additional bindings. Bindings wrap the lifecycle hooks, so
// they only take effect on the next attach.
func (n *Node) Apply(bindings ...Binding) {
	for _, b := range bindings {
		b(n)
	}
}

// Name returns the node's component name.
func (n *Node) Name() string {
	return NameTag.GetOrDefault(n, "")
}

// Parent returns the node's parent, or nil for roots and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's attached children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Root returns the topmost ancestor, or the node itself.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Attached reports whether the node is currently attached.
func (n *Node) Attached() bool {
	return n.attached
}

// OnAttach chains a hook onto the node's attach lifecycle. The new hook runs
// before any previously registered one, so a binding's logic always precedes
// the original hook it wrapped.
func (n *Node) OnAttach(hook func()) {
	prev := n.onAttach
	n.onAttach = func() {
		hook()
		if prev != nil {
			prev()
		}
	}
}

// OnDetach chains a hook onto the node's detach lifecycle, with the same
// ordering as OnAttach.
func (n *Node) OnDetach(hook func()) {
	prev := n.onDetach
	n.onDetach = func() {
		hook()
		if prev != nil {
			prev()
		}
	}
}

// AttachTo links the node under parent (nil for a root) and runs its attach
// hooks. Attaching an already-attached node is a no-op.
func (n *Node) AttachTo(parent *Node) {
	if n.attached {
		return
	}
	n.parent = parent
	if parent != nil {
		parent.children = appendUnique(parent.children, n)
	}
	n.attached = true
	if n.onAttach != nil {
		n.onAttach()
	}
}

// Detach removes the node (and its whole subtree, children first) from the
// tree, running detach hooks. The parent link is kept alive while hooks run
// so disconnect events can still bubble to ancestor providers.
func (n *Node) Detach() {
	if !n.attached {
		return
	}
	for _, child := range n.Children() {
		child.Detach()
	}
	n.attached = false
	if n.onDetach != nil {
		n.onDetach()
	}
	if n.parent != nil {
		n.parent.children = removeElement(n.parent.children, n)
		n.parent = nil
	}
}

// Use registers an extension on the node. Extensions observe set, claim and
// disconnect operations in the subtree rooted here; register them on the
// root. Extensions run ordered by Order().
func (n *Node) Use(ext Extension) error {
	n.exts = append(n.exts, ext)
	for i := len(n.exts) - 1; i > 0; i-- {
		if n.exts[i].Order() < n.exts[i-1].Order() {
			n.exts[i], n.exts[i-1] = n.exts[i-1], n.exts[i]
		}
	}
	return ext.Init(n)
}

// Dispose detaches the node's subtree and disposes its extensions.
func (n *Node) Dispose() error {
	for _, child := range n.Children() {
		child.Detach()
	}
	n.Detach()
	for _, ext := range n.exts {
		if err := ext.Dispose(n); err != nil {
			return &DisposeError{Extension: ext.Name(), Err: err}
		}
	}
	return nil
}

// Prop returns the named property slot.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// SetProp assigns a property slot. The assignment is equality-gated: writing
// a value deep-equal to the current one leaves the slot untouched. It reports
// whether the slot changed.
func (n *Node) SetProp(name string, value any) bool {
	if prev, ok := n.props[name]; ok && Equal(prev, value) {
		return false
	}
	n.props[name] = value
	return true
}

// GetTag retrieves raw tag metadata; prefer Tag.Get.
func (n *Node) GetTag(tag any) (any, bool) {
	val, ok := n.tags[tag]
	return val, ok
}

// SetTag stores raw tag metadata; prefer Tag.Set.
func (n *Node) SetTag(tag any, val any) {
	n.tags[tag] = val
}

func (n *Node) addListener(kind eventKind, fn func(*Event)) (remove func()) {
	l := &listener{fn: fn}
	n.listeners[kind] = append(n.listeners[kind], l)
	return func() {
		n.listeners[kind] = removeElement(n.listeners[kind], l)
	}
}

// dispatch delivers an event to this node's listeners and bubbles it through
// ancestors until claimed via StopPropagation.
func (n *Node) dispatch(ev *Event) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.dispatchLocal(ev)
		if ev.stopped {
			return
		}
	}
}

// dispatchLocal delivers an event to this node's listeners only, in
// registration order. Update events never bubble.
func (n *Node) dispatchLocal(ev *Event) {
	ls := make([]*listener, len(n.listeners[ev.kind]))
	copy(ls, n.listeners[ev.kind])
	for _, l := range ls {
		l.fn(ev)
		if ev.stopped {
			return
		}
	}
}

// scheduler returns the retry scheduler configured on the node's root.
func (n *Node) scheduler() Scheduler {
	if s := n.Root().sched; s != nil {
		return s
	}
	return defaultScheduler
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
