package livemix

import (
	"fmt"
	"log"
)

// ErrorHandler is the engine's error boundary. Non-fatal failures that must
// not interrupt the audio path (a slow topology change, a teardown error on
// an already-removed device) are routed here instead of being returned.
type ErrorHandler interface {
	HandleError(error)
}

// HandlerFunc adapts a function into an ErrorHandler.
type HandlerFunc func(error)

// HandleError implements ErrorHandler.
func (f HandlerFunc) HandleError(err error) { f(err) }

// DefaultErrorHandler logs errors through the standard logger.
type DefaultErrorHandler struct{}

// HandleError implements ErrorHandler.
func (DefaultErrorHandler) HandleError(err error) {
	log.Printf("livemix: %v", err)
}

// PanicErrorHandler panics on any reported error. Useful in tests and
// development to surface failures that would otherwise only be logged.
type PanicErrorHandler struct{}

// HandleError implements ErrorHandler.
func (PanicErrorHandler) HandleError(err error) {
	panic(fmt.Sprintf("livemix engine error: %v", err))
}
