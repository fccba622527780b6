package treectx

// Tag is a type-safe key for node metadata
type Tag[T any] struct {
	key string
}

// NewTag creates a new tag with the given key
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{key: key}
}

// Key returns the tag's key (for debugging)
func (t Tag[T]) Key() string {
	return t.key
}

// Get retrieves the tag value from a node
func (t Tag[T]) Get(n *Node) (T, bool) {
	val, ok := n.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// GetOrDefault retrieves the tag value or returns a default
func (t Tag[T]) GetOrDefault(n *Node, defaultVal T) T {
	if val, ok := t.Get(n); ok {
		return val
	}
	return defaultVal
}

// Set stores the tag value on a node
func (t Tag[T]) Set(n *Node, val T) {
	n.SetTag(t, val)
}

// NameTag holds a node's component name. NewNode sets it; diagnostics such
// as the no-provider-found callback and the tree debug extension read it.
var NameTag = NewTag[string]("node.name")
