// Package treectx lets a tree of loosely-coupled components share a value
// without explicit parameter passing. One provider node holds the
// authoritative value; any number of consumer nodes anywhere in its subtree
// receive and react to updates, without either side holding a direct
// reference to the other.
//
// # Overview
//
// The package is organized around three core concepts:
//
//  1. Contexts: immutable descriptors created once, each owning a default
//     value and a store of per-provider current values
//  2. Nodes: the component tree, with attach/detach lifecycle hooks and a
//     bubbling event substrate that the pairing protocol rides on
//  3. Bindings: behavior appliers returned by Provide and Consume that wrap
//     a node's lifecycle hooks, so multiple contexts compose on one node
//
// # Basic Usage
//
// Create a context and bind a provider and a consumer:
//
//	theme := treectx.New("theme", "light")
//
//	root := treectx.NewNode("app", theme.Provide())
//	button := treectx.NewNode("button", theme.Consume())
//
//	root.AttachTo(nil)
//	button.AttachTo(root)
//
//	// The consumer is synced immediately on pairing:
//	v, _ := button.Prop("theme") // "light"
//
//	theme.Set(root, "dark")
//	v, _ = button.Prop("theme") // "dark"
//
// Pairing is nearest-ancestor-wins: a consumer's discovery event bubbles
// from the consumer toward the root, and the innermost provider of the same
// context claims it, stopping further propagation. A consumer that attaches
// before its provider keeps retrying discovery on a capped backoff schedule
// until the provider appears or the consumer detaches; a missing provider is
// a degraded state, never an error.
//
// # Propagation Suppression
//
// Set compares the new value against the current one with a deep structural
// predicate (override per context with WithEqual) and suppresses the update
// entirely when they are equal: no store mutation, no event. Consumer
// property assignment is gated the same way.
//
// # Derived Contexts
//
// A derived context recomputes its value from N upstream contexts through a
// pure function, re-running synchronously on every upstream change once all
// upstreams have delivered their first value:
//
//	locale := treectx.New("locale", "en")
//	banner := treectx.Derived2("banner", theme, locale,
//	    func(t, l string) string { return t + "/" + l })
//
//	header := treectx.NewNode("header", banner.Provide())
//
// Internally the providing node consumes each upstream and provides the
// derived value downstream through the normal Set path.
//
// # Watching
//
// Watch subscribes a plain handler without a property slot:
//
//	stop := theme.Watch(button, func(v string) { ... })
//	defer stop()
//
// # Concurrency
//
// The tree is cooperative and single-threaded: all propagation happens
// synchronously inside attach, detach and Set. The only deferred work is the
// discovery retry schedule. The default TimerScheduler fires retries on a
// timer goroutine, so embedders relying on it must serialize tree access
// themselves; a StepScheduler bound to the root with WithScheduler keeps
// retries on the caller's goroutine instead.
package treectx
