package logging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError is returned by Guard when fn panicked.
type PanicError struct {
	Component string
	Value     any
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Component, e.Value)
}

// Guard runs fn and turns a panic into a *PanicError logged on logger.
// A nil logger logs through New(component).
func Guard(logger *slog.Logger, component string, fn func() error) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if logger == nil {
			logger = New(component)
		}
		pe := &PanicError{Component: component, Value: rec, Stack: string(debug.Stack())}
		logger.Error("panic recovered",
			slog.String("in", component),
			slog.Any("panic", rec),
			slog.String("stack", pe.Stack),
		)
		err = pe
	}()
	return fn()
}

// SafeGo runs fn in a goroutine that cannot crash the process.
func SafeGo(component string, fn func()) {
	go func() {
		_ = Guard(nil, component, func() error {
			fn()
			return nil
		})
	}()
}
