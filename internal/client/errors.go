package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine calls.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNetwork indicates the request never produced a response
	// (unreachable host, refused connection, timeout).
	ErrNetwork = errors.New("engine unreachable")

	// ErrServer indicates the engine answered with a non-2xx status.
	ErrServer = errors.New("engine returned an error status")

	// ErrParse indicates the response body was not the expected JSON document.
	ErrParse = errors.New("engine response not understood")
)

// ServerError carries the status of a non-2xx response.
type ServerError struct {
	StatusCode int
	Status     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrServer, e.Status)
}

func (e *ServerError) Unwrap() error {
	return ErrServer
}

// EngineError is returned when the engine answers 200 with an "error" field,
// which it does when its model output could not be parsed.
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", ErrParse, e.Message)
}

func (e *EngineError) Unwrap() error {
	return ErrParse
}
