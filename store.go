package treectx

import "sync"

// nodeStore is a context's associative store mapping a live provider node to
// its current value. A missing entry means "use the context default", never
// an error. Entries appear on first Set and are removed when the owning
// provider detaches, so a detached provider never pins a value.
type nodeStore[T any] struct {
	mu     sync.RWMutex
	values map[*Node]T
}

func newNodeStore[T any]() *nodeStore[T] {
	return &nodeStore[T]{values: make(map[*Node]T)}
}

func (s *nodeStore[T]) load(n *Node) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[n]
	return v, ok
}

func (s *nodeStore[T]) store(n *Node, v T) {
	s.mu.Lock()
	s.values[n] = v
	s.mu.Unlock()
}

func (s *nodeStore[T]) delete(n *Node) {
	s.mu.Lock()
	delete(s.values, n)
	s.mu.Unlock()
}

func (s *nodeStore[T]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
