package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a usage fetch failed.
type ErrorKind int

const (
	ErrNoCredentials ErrorKind = iota + 1
	ErrAuthInvalid
	ErrTransport
	ErrServer
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNoCredentials:
		return "no_credentials"
	case ErrAuthInvalid:
		return "auth_invalid"
	case ErrTransport:
		return "transport"
	case ErrServer:
		return "server"
	case ErrParse:
		return "parse"
	}
	return "unknown"
}

// FetchError is returned by fetchUsage. Its message is what the user sees.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ErrNoCredentials:
		return "Claude Code credentials not found"
	case ErrAuthInvalid:
		return "Token invalid or expired"
	case ErrServer:
		return fmt.Sprintf("API error: %d", e.StatusCode)
	case ErrTransport:
		return fmt.Sprintf("network error: %v", e.Err)
	case ErrParse:
		return fmt.Sprintf("failed to parse response: %v", e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches another *FetchError by kind, so errors.Is(err, &FetchError{Kind: ErrAuthInvalid}) works.
func (e *FetchError) Is(target error) bool {
	var t *FetchError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// errorKind extracts the kind from err, or 0 when err is not a *FetchError.
func errorKind(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
