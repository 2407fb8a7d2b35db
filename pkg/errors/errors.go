// Package errors provides the structured error taxonomy shared by the widget,
// config and bridge packages.
//
// Precondition violations (bad arguments, reparent cycles, off-thread access,
// unsupported class/backend combinations, use after dispose) are returned to
// the caller as *EvolveError values wrapping one of the sentinel errors below,
// so callers can test them with errors.Is. Failures that have no caller to
// return to (transport writes, config reloads, queued runnables) are reported
// through the global ErrorHandler instead.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInvalidArgument indicates a nil or disposed argument.
	KindInvalidArgument
	// KindCycle indicates a structural mutation that would create a cycle.
	KindCycle
	// KindWrongThread indicates widget access off the owning UI goroutine.
	KindWrongThread
	// KindUnsupported indicates a class that has no implementation on the chosen backend.
	KindUnsupported
	// KindDisposed indicates an operation on a disposed widget.
	KindDisposed
	// KindTransport indicates a failure talking to the external renderer.
	KindTransport
	// KindConfig indicates a configuration load or validation failure.
	KindConfig
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindCycle:
		return "cycle"
	case KindWrongThread:
		return "wrong_thread"
	case KindUnsupported:
		return "unsupported"
	case KindDisposed:
		return "disposed"
	case KindTransport:
		return "transport"
	case KindConfig:
		return "config"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per precondition class.
var (
	ErrInvalidArgument = stderrors.New("invalid argument")
	ErrCycle           = stderrors.New("structural cycle")
	ErrWrongThread     = stderrors.New("invalid thread access")
	ErrUnsupported     = stderrors.New("unsupported operation")
	ErrDisposed        = stderrors.New("widget is disposed")
)

// EvolveError represents a structured error.
type EvolveError struct {
	// Op is the operation that failed (e.g., "widgets.SetParent").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Widget names the widget involved, as "Kind/id", if applicable.
	Widget string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *EvolveError) Error() string {
	if e.Widget != "" {
		return fmt.Sprintf("%s [%s] widget=%s: %v", e.Op, e.Kind, e.Widget, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *EvolveError) Unwrap() error {
	return e.Err
}

// New builds an EvolveError. When err is nil the sentinel matching kind is used.
func New(op string, kind ErrorKind, err error) *EvolveError {
	if err == nil {
		err = sentinelFor(kind)
	}
	return &EvolveError{Op: op, Kind: kind, Err: err}
}

// NewWidget builds an EvolveError naming the widget involved.
func NewWidget(op string, kind ErrorKind, widget string, err error) *EvolveError {
	e := New(op, kind, err)
	e.Widget = widget
	return e
}

// Errorf builds an EvolveError whose message wraps the sentinel for kind.
func Errorf(op string, kind ErrorKind, format string, args ...any) *EvolveError {
	msg := fmt.Sprintf(format, args...)
	if s := sentinelFor(kind); s != nil {
		return New(op, kind, fmt.Errorf("%w: %s", s, msg))
	}
	return New(op, kind, stderrors.New(msg))
}

// KindOf returns the kind of the first EvolveError in err's chain.
func KindOf(err error) ErrorKind {
	var e *EvolveError
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindCycle:
		return ErrCycle
	case KindWrongThread:
		return ErrWrongThread
	case KindUnsupported:
		return ErrUnsupported
	case KindDisposed:
		return ErrDisposed
	}
	return nil
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "widgets.RunPending").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors that cannot be returned to a caller.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *EvolveError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
