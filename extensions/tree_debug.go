package extensions

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
	treectx "github.com/treekit/treectx"
)

// TreeDebugExtension renders the component tree when a consumer repeatedly
// fails to find a provider, annotating which nodes provide or consume the
// watched contexts. The rendering makes it obvious when a provider sits in
// the wrong subtree or never attached.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stderr, slog.LevelError)
//	ext := extensions.NewTreeDebugExtension(handler, theme, locale)
//
//	// Silent (for testing)
//	ext := extensions.NewTreeDebugExtension(extensions.NewSilentHandler())
//
// The extension logs once per discovery, at ERROR level, on the attempt
// right past the report threshold.
type TreeDebugExtension struct {
	treectx.BaseExtension
	logger   *slog.Logger
	contexts []treectx.AnyContext
	reportAt int
}

// NewTreeDebugExtension creates a new tree debug extension. The given
// contexts are used to annotate provider and consumer roles in the
// rendering.
func NewTreeDebugExtension(logHandler slog.Handler, contexts ...treectx.AnyContext) *TreeDebugExtension {
	return &TreeDebugExtension{
		BaseExtension: treectx.NewBaseExtension("tree-debug"),
		logger:        slog.New(logHandler),
		contexts:      contexts,
		reportAt:      3,
	}
}

func (e *TreeDebugExtension) OnNoProvider(consumer *treectx.Node, ctx treectx.AnyContext, attempt int) {
	if attempt != e.reportAt {
		return
	}
	e.logger.Error("no provider found",
		"context", ctx.Name(),
		"consumer", consumer.Name(),
		"attempt", attempt,
		"component_tree", e.RenderTree(consumer.Root()),
	)
}

// RenderTree draws the tree rooted at root with role annotations.
func (e *TreeDebugExtension) RenderTree(root *treectx.Node) string {
	t := tree.NewTree(tree.NodeString(e.label(root)))
	e.addChildren(t, root)
	return "\n" + fmt.Sprint(t)
}

func (e *TreeDebugExtension) addChildren(t *tree.Tree, n *treectx.Node) {
	for i, child := range n.Children() {
		t.AddChild(tree.NodeString(e.label(child)))
		ct, err := t.Child(i)
		if err != nil {
			continue
		}
		e.addChildren(ct, child)
	}
}

func (e *TreeDebugExtension) label(n *treectx.Node) string {
	name := n.Name()
	if name == "" {
		name = fmt.Sprintf("node_%p", n)
	}

	var roles []string
	for _, ctx := range e.contexts {
		if ctx.IsProvider(n) {
			roles = append(roles, "provides "+ctx.Name())
		}
		if _, ok := ctx.ProviderOf(n); ok {
			roles = append(roles, "consumes "+ctx.Name())
		}
	}
	if len(roles) == 0 {
		return name
	}
	return name + " (" + strings.Join(roles, ", ") + ")"
}
