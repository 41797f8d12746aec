package bindings

import (
	"errors"
	"fmt"
)

var (
	// ErrPending is returned by a step definition that is not implemented yet.
	ErrPending = errors.New("step definition is pending")

	// ErrRegistryBuilt is returned when registering into a registry that was
	// already built.
	ErrRegistryBuilt = errors.New("binding registry is already built")

	// ErrRegistryNotBuilt is returned when querying a registry before Build.
	ErrRegistryNotBuilt = errors.New("binding registry is not built")
)

// Pending returns ErrPending. Step definitions return it to mark themselves
// as incomplete.
func Pending() error {
	return ErrPending
}

// BindingError reports a structurally invalid binding: a bad signature, a
// registration defect or arguments that cannot be passed to the method.
type BindingError struct {
	Method  string
	Message string
	Err     error
}

func (e *BindingError) Error() string {
	msg := e.Message
	if e.Method != "" {
		msg = fmt.Sprintf("%s: %s", e.Method, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic raised by user binding code, keeping the stack of
// the goroutine at the point of the panic.
type PanicError struct {
	Method string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Method, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
