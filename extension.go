package treectx

// Extension provides hooks into the pairing protocol's lifecycle. Register
// extensions on a tree root with Node.Use.
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered on a root
	Init(root *Node) error

	// Wrap intercepts operations (set, claim, disconnect)
	Wrap(next func() error, op *Operation) error

	// OnNoProvider is called on every failed discovery attempt past the
	// report threshold
	OnNoProvider(consumer *Node, ctx AnyContext, attempt int)

	// Dispose is called when the root is disposed
	Dispose(root *Node) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(root *Node) error {
	return nil
}

func (e *BaseExtension) Wrap(next func() error, op *Operation) error {
	return next()
}

func (e *BaseExtension) OnNoProvider(consumer *Node, ctx AnyContext, attempt int) {
}

func (e *BaseExtension) Dispose(root *Node) error {
	return nil
}

// Operation describes what protocol operation is happening
type Operation struct {
	Kind    OperationKind
	Context AnyContext
	Node    *Node
	// Peer is the consumer node for claim operations
	Peer *Node
	// Value is the new value for set operations
	Value any
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpSet indicates a provider value change
	OpSet OperationKind = "set"
	// OpClaim indicates a provider claiming a consumer's discovery event
	OpClaim OperationKind = "claim"
	// OpDisconnect indicates a consumer tearing down its pairing
	OpDisconnect OperationKind = "disconnect"
)

// runExtensions chains the root's extensions around op in middleware order:
// the last registered wraps first.
func runExtensions(n *Node, op *Operation, next func() error) error {
	exts := n.Root().exts
	call := next
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		inner := call
		call = func() error {
			return ext.Wrap(inner, op)
		}
	}
	return call()
}
