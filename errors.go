package treectx

import "fmt"

// NotProviderError reports a Set against a node that is not an attached
// provider of the context. It is the only hard failure in the protocol;
// every other degraded state resolves to "stays at default value".
type NotProviderError struct {
	Context string
	Node    string
}

func (e *NotProviderError) Error() string {
	return fmt.Sprintf("node %q is not an attached provider of context %q", e.Node, e.Context)
}

// DisposeError wraps an extension failure during root disposal.
type DisposeError struct {
	Extension string
	Err       error
}

func (e *DisposeError) Error() string {
	return fmt.Sprintf("disposing extension %s: %v", e.Extension, e.Err)
}

func (e *DisposeError) Unwrap() error {
	return e.Err
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
