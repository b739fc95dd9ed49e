package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// PreconditionError is detected locally; no request was sent.
type PreconditionError struct {
	msg string
}

func (e PreconditionError) Error() string { return e.msg }

func ErrPrecondition(format string, args ...any) error {
	return PreconditionError{msg: fmt.Sprintf(format, args...)}
}

// TransportError covers network failures and non-success statuses without a usable body.
type TransportError struct {
	Status int
	Err    error
}

func (e TransportError) Error() string {
	if e.Err != nil {
		return "request failed: " + e.Err.Error()
	}
	return fmt.Sprintf("request failed: %d %s", e.Status, http.StatusText(e.Status))
}

func (e TransportError) Unwrap() error { return e.Err }

// ContractError means the response could not be decoded or lacked expected fields.
type ContractError struct {
	msg string
}

func (e ContractError) Error() string { return e.msg }

func ErrContract(msg string) error { return ContractError{msg: msg} }

// ServerError carries the backend's own `error` string.
type ServerError struct {
	Status int
	Msg    string
}

func (e ServerError) Error() string { return e.Msg }

const msgInvalidResponse = "Invalid response from server"

// Message normalizes any workflow error into the single line shown to the user.
// Server-reported messages win over generic ones.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se ServerError
	if errors.As(err, &se) && strings.TrimSpace(se.Msg) != "" {
		return se.Msg
	}
	var pe PreconditionError
	if errors.As(err, &pe) {
		return pe.msg
	}
	var ce ContractError
	if errors.As(err, &ce) {
		return ce.msg
	}
	var te TransportError
	if errors.As(err, &te) {
		if te.Err != nil {
			return "Network error: " + te.Err.Error()
		}
		return fmt.Sprintf("Server returned %d %s", te.Status, http.StatusText(te.Status))
	}
	return err.Error()
}
