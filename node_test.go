package treectx

import "testing"

func TestHookChaining(t *testing.T) {
	var order []string

	n := NewNode("n")
	n.OnAttach(func() { order = append(order, "first") })
	n.OnAttach(func() { order = append(order, "second") })
	n.OnDetach(func() { order = append(order, "down-first") })
	n.OnDetach(func() { order = append(order, "down-second") })

	n.AttachTo(nil)
	n.Detach()

	// A hook wraps the previous one: its own logic runs, then the original.
	want := []string{"second", "first", "down-second", "down-first"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestBindingsComposeIndependently(t *testing.T) {
	// Two contexts bound to the same node must not clobber each other's
	// lifecycle hooks.
	theme := New("theme", "light")
	size := New("size", 12)

	root := NewNode("root", theme.Provide(), size.Provide())
	leaf := NewNode("leaf", theme.Consume(), size.Consume())

	root.AttachTo(nil)
	leaf.AttachTo(root)

	if v, _ := leaf.Prop("theme"); v != "light" {
		t.Errorf("expected light, got %v", v)
	}
	if v, _ := leaf.Prop("size"); v != 12 {
		t.Errorf("expected 12, got %v", v)
	}

	leaf.Detach()
	if got := len(theme.Consumers(root)); got != 0 {
		t.Errorf("expected theme pairing torn down, got %d", got)
	}
	if got := len(size.Consumers(root)); got != 0 {
		t.Errorf("expected size pairing torn down, got %d", got)
	}
}

func TestAttachDetachIdempotent(t *testing.T) {
	attaches, detaches := 0, 0
	n := NewNode("n")
	n.OnAttach(func() { attaches++ })
	n.OnDetach(func() { detaches++ })

	n.AttachTo(nil)
	n.AttachTo(nil)
	if attaches != 1 {
		t.Errorf("expected 1 attach, got %d", attaches)
	}

	n.Detach()
	n.Detach()
	if detaches != 1 {
		t.Errorf("expected 1 detach, got %d", detaches)
	}
}

func TestDetachRunsSubtreeChildrenFirst(t *testing.T) {
	var order []string
	mk := func(name string) *Node {
		n := NewNode(name)
		n.OnDetach(func() { order = append(order, name) })
		return n
	}

	root := mk("root")
	mid := mk("mid")
	leaf := mk("leaf")
	root.AttachTo(nil)
	mid.AttachTo(root)
	leaf.AttachTo(mid)

	root.Detach()

	want := []string{"leaf", "mid", "root"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
	if root.Parent() != nil || mid.Parent() != nil || leaf.Parent() != nil {
		t.Error("expected all parent links cleared")
	}
}

func TestSetPropEqualityGate(t *testing.T) {
	n := NewNode("n")

	if !n.SetProp("v", map[string]int{"count": 1}) {
		t.Error("expected first assignment to change the slot")
	}
	if n.SetProp("v", map[string]int{"count": 1}) {
		t.Error("expected deep-equal assignment to be gated")
	}
	if !n.SetProp("v", map[string]int{"count": 2}) {
		t.Error("expected different value to change the slot")
	}
}

func TestTags(t *testing.T) {
	color := NewTag[string]("color")
	n := NewNode("n")

	if _, ok := color.Get(n); ok {
		t.Error("expected tag to be unset")
	}
	if got := color.GetOrDefault(n, "red"); got != "red" {
		t.Errorf("expected default red, got %s", got)
	}

	color.Set(n, "blue")
	if got, ok := color.Get(n); !ok || got != "blue" {
		t.Errorf("expected blue, got %s", got)
	}

	if n.Name() != "n" {
		t.Errorf("expected NameTag set by NewNode, got %q", n.Name())
	}
}

func TestRootWalksAncestors(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewNode("leaf")
	root.AttachTo(nil)
	mid.AttachTo(root)
	leaf.AttachTo(mid)

	if leaf.Root() != root {
		t.Error("expected leaf root to be root")
	}
	if root.Root() != root {
		t.Error("expected root to be its own root")
	}
}

func TestEqualPredicate(t *testing.T) {
	if !Equal(nil, nil) {
		t.Error("nil == nil")
	}
	if Equal(nil, 1) || Equal(1, nil) {
		t.Error("nil vs value")
	}
	if !Equal(1, 1) || Equal(1, 2) {
		t.Error("comparable values")
	}
	if Equal(1, "1") {
		t.Error("different types are never equal")
	}
	if !Equal([]int{1, 2}, []int{1, 2}) {
		t.Error("deep comparison for non-comparable types")
	}
	if Equal([]int{1}, []int{2}) {
		t.Error("differing slices")
	}
	if !NotEqual(1, 2) {
		t.Error("NotEqual negates Equal")
	}

	// Comparable struct type, non-comparable value behind an interface
	// field: must compare structurally, not with ==.
	type box struct{ V any }
	if !Equal(box{V: []int{1}}, box{V: []int{1}}) {
		t.Error("struct wrapping an uncomparable value")
	}
	if Equal(box{V: []int{1}}, box{V: []int{2}}) {
		t.Error("differing wrapped slices")
	}
	if !Equal([2]any{[]int{1}, "x"}, [2]any{[]int{1}, "x"}) {
		t.Error("array wrapping an uncomparable value")
	}
}
