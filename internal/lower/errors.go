package lower

import "fmt"

// ErrorKind is the closed set of lowering failure kinds (spec.md §7).
type ErrorKind int

const (
	// Unannotated marks an AST node reaching lowering without a type
	// attached, or a structural assumption the semantic annotator should
	// have already enforced (e.g. an lvalue that is not addressable).
	// Spec.md §4.7: "any missing annotation is a bug".
	Unannotated ErrorKind = iota
	// BackendError wraps a failure reported by the Emitter itself.
	BackendError
)

func (k ErrorKind) String() string {
	switch k {
	case Unannotated:
		return "Unannotated"
	case BackendError:
		return "BackendError"
	default:
		return "Unknown"
	}
}

// Error is a lowering diagnostic (spec.md LowerError).
type Error struct {
	Kind    ErrorKind
	Node    string // a short description of the offending AST node
	Message string // BackendError detail
}

func (e *Error) Error() string {
	switch e.Kind {
	case Unannotated:
		return fmt.Sprintf("lower: unannotated node: %s", e.Node)
	case BackendError:
		return fmt.Sprintf("lower: backend error: %s", e.Message)
	default:
		return "lower: error"
	}
}

// backendErr wraps a non-nil error returned by an Emitter call as a
// Lower::BackendError, per spec.md §4.7.
func backendErr(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: BackendError, Message: err.Error()}
}
