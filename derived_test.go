package treectx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivedDefault(t *testing.T) {
	a := New("a", "x")
	b := New("b", 1)

	sum := Derived2("sum", a, b, func(av string, bv int) string {
		return fmt.Sprintf("%s%d", av, bv)
	})

	require.Equal(t, "x1", sum.Default(),
		"derived default is the derivation over upstream defaults")
}

func TestDerivedRecomputesOnUpstreamChange(t *testing.T) {
	a := New("a", "x")
	b := New("b", 1)
	sum := Derived2("sum", a, b, func(av string, bv int) string {
		return fmt.Sprintf("%s%d", av, bv)
	})

	root := NewNode("root", a.Provide(), b.Provide())
	mid := NewNode("mid", sum.Provide())
	leaf := NewNode("leaf", sum.Consume())

	root.AttachTo(nil)
	mid.AttachTo(root)
	leaf.AttachTo(mid)

	v, ok := leaf.Prop("sum")
	require.True(t, ok)
	require.Equal(t, "x1", v)

	// One upstream changing is enough; the derivation must not wait for the
	// other.
	require.NoError(t, a.Set(root, "y"))
	v, _ = leaf.Prop("sum")
	require.Equal(t, "y1", v)

	require.NoError(t, b.Set(root, 2))
	v, _ = leaf.Prop("sum")
	require.Equal(t, "y2", v)
}

func TestDerivedAppliesEachUpdateInArrivalOrder(t *testing.T) {
	a := New("a", 0)
	b := New("b", 0)
	sum := Derived2("sum", a, b, func(av, bv int) int { return av + bv })

	root := NewNode("root", a.Provide(), b.Provide())
	mid := NewNode("mid", sum.Provide())
	root.AttachTo(nil)
	mid.AttachTo(root)

	var seen []int
	stop := sum.Watch(mid, func(v int) { seen = append(seen, v) })
	defer stop()
	seen = nil

	// No coalescing: each upstream arrival re-runs the derivation.
	require.NoError(t, a.Set(root, 1))
	require.NoError(t, b.Set(root, 2))
	require.NoError(t, a.Set(root, 10))

	require.Equal(t, []int{1, 3, 12}, seen)
}

func TestDerivedInheritsEqualitySuppression(t *testing.T) {
	a := New("a", 1)
	b := New("b", 2)
	// min collapses many upstream changes onto the same derived value.
	low := Derived2("low", a, b, func(av, bv int) int {
		if av < bv {
			return av
		}
		return bv
	})

	root := NewNode("root", a.Provide(), b.Provide())
	mid := NewNode("mid", low.Provide())
	root.AttachTo(nil)
	mid.AttachTo(root)

	updates := 0
	stop := low.Watch(mid, func(int) { updates++ })
	defer stop()
	updates = 0

	require.NoError(t, b.Set(root, 5)) // low stays 1: suppressed
	require.NoError(t, b.Set(root, 7)) // low stays 1: suppressed
	require.NoError(t, a.Set(root, 0)) // low becomes 0
	require.Equal(t, 1, updates)
}

func TestDerivedWaitsForAllUpstreams(t *testing.T) {
	step := NewStepScheduler()
	a := New("a", "x")
	b := New("b", 1)
	sum := Derived2("sum", a, b, func(av string, bv int) string {
		return fmt.Sprintf("%s%d", av, bv)
	})

	// Only a has a provider initially; b's watch keeps retrying, so the
	// aggregation stays not-ready and the derived value stays at default.
	root := NewNode("root", a.Provide(), WithScheduler(step))
	inner := NewNode("inner", b.Provide())
	mid := NewNode("mid", sum.Provide())

	root.AttachTo(nil)
	mid.AttachTo(root)

	require.NoError(t, a.Set(root, "y"))
	require.Equal(t, "x1", sum.Get(mid), "not ready: still the default")

	// b's provider appears above mid; the pending watch finds it on retry.
	inner.AttachTo(root)
	mid.Detach()
	mid.AttachTo(inner)

	require.NoError(t, b.Set(inner, 3))
	require.Equal(t, "y3", sum.Get(mid))
}

func TestDerivedDetachResetsAndReattaches(t *testing.T) {
	a := New("a", 1)
	double := Derived1("double", a, func(av int) int { return av * 2 })

	root := NewNode("root", a.Provide())
	mid := NewNode("mid", double.Provide())
	root.AttachTo(nil)
	mid.AttachTo(root)

	require.NoError(t, a.Set(root, 5))
	require.Equal(t, 10, double.Get(mid))

	mid.Detach()
	require.Equal(t, 2, double.Get(mid), "detached provider falls back to default")

	// Upstream changes while detached must not leak into the dead state.
	require.NoError(t, a.Set(root, 7))

	mid.AttachTo(root)
	require.Equal(t, 14, double.Get(mid), "re-attach resyncs from upstream")
}

func TestDerivedN(t *testing.T) {
	a := New("a", 1)
	b := New("b", 2)
	c := New("c", 3)

	total := DerivedN("total", []AnyContext{a, b, c}, func(vals []any) any {
		sum := 0
		for _, v := range vals {
			sum += v.(int)
		}
		return sum
	})

	require.Equal(t, 6, total.Default())

	root := NewNode("root", a.Provide(), b.Provide(), c.Provide())
	mid := NewNode("mid", total.Provide())
	leaf := NewNode("leaf", total.Consume())
	root.AttachTo(nil)
	mid.AttachTo(root)
	leaf.AttachTo(mid)

	require.NoError(t, c.Set(root, 30))
	v, _ := leaf.Prop("total")
	require.Equal(t, 33, v)
}

func TestDerivedOfDerived(t *testing.T) {
	base := New("base", 2)
	double := Derived1("double", base, func(v int) int { return v * 2 })
	quad := Derived1("quad", double.Context, func(v int) int { return v * 2 })

	root := NewNode("root", base.Provide())
	n1 := NewNode("n1", double.Provide())
	n2 := NewNode("n2", quad.Provide())
	root.AttachTo(nil)
	n1.AttachTo(root)
	n2.AttachTo(n1)

	require.Equal(t, 8, quad.Get(n2))
	require.NoError(t, base.Set(root, 3))
	require.Equal(t, 12, quad.Get(n2))
}
