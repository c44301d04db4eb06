package api

import (
	"errors"
	"fmt"
)

// FaultCode identifies one of the four domain faults the core surfaces at
// the RPC boundary. A fault crosses that boundary by its String() name in
// the response's Fault field; no numeric offset is applied.
type FaultCode int

const (
	FaultConfError FaultCode = iota + 1
	FaultBadSupvisorsState
	FaultBadAddress
	FaultBadStrategy
)

func (f FaultCode) String() string {
	switch f {
	case FaultConfError:
		return "SUPVISORS_CONF_ERROR"
	case FaultBadSupvisorsState:
		return "BAD_SUPVISORS_STATE"
	case FaultBadAddress:
		return "BAD_ADDRESS"
	case FaultBadStrategy:
		return "BAD_STRATEGY"
	default:
		return "UNKNOWN_FAULT"
	}
}

// BadSupvisorsStateError reports an operation requested while the fleet FSM
// is in a state that forbids it (e.g. start_application during INITIALIZATION).
type BadSupvisorsStateError struct {
	State     string
	Operation string
}

func (e *BadSupvisorsStateError) Error() string {
	return fmt.Sprintf("%s: operation %q not allowed in state %s", FaultBadSupvisorsState, e.Operation, e.State)
}

func NewBadSupvisorsStateError(state, operation string) *BadSupvisorsStateError {
	return &BadSupvisorsStateError{State: state, Operation: operation}
}

// IsBadSupvisorsState reports whether err is a BadSupvisorsStateError.
func IsBadSupvisorsState(err error) bool {
	var target *BadSupvisorsStateError
	return errors.As(err, &target)
}

// BadAddressError reports a reference to an address absent from the
// configured address list, or an address unusable for a given operation.
type BadAddressError struct {
	Address string
	Message string
}

func (e *BadAddressError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", FaultBadAddress, e.Message)
	}
	return fmt.Sprintf("%s: unknown address %q", FaultBadAddress, e.Address)
}

func NewBadAddressError(address string) *BadAddressError {
	return &BadAddressError{Address: address}
}

func NewBadAddressErrorWithMessage(address, message string) *BadAddressError {
	return &BadAddressError{Address: address, Message: message}
}

// IsBadAddress reports whether err is a BadAddressError.
func IsBadAddress(err error) bool {
	var target *BadAddressError
	return errors.As(err, &target)
}

// BadStrategyError reports an unrecognized placement or conciliation
// strategy name.
type BadStrategyError struct {
	Strategy string
	Kind     string // "starting" or "conciliation"
}

func (e *BadStrategyError) Error() string {
	return fmt.Sprintf("%s: unknown %s strategy %q", FaultBadStrategy, e.Kind, e.Strategy)
}

func NewBadStrategyError(kind, strategy string) *BadStrategyError {
	return &BadStrategyError{Kind: kind, Strategy: strategy}
}

// IsBadStrategy reports whether err is a BadStrategyError.
func IsBadStrategy(err error) bool {
	var target *BadStrategyError
	return errors.As(err, &target)
}

// ConfFileError reports a configuration or rules-file load failure: an
// invalid address, an invalid strategy name, or a missing required file.
type ConfFileError struct {
	Path    string
	Message string
}

func (e *ConfFileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", FaultConfError, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", FaultConfError, e.Message)
}

func NewConfFileError(path, message string) *ConfFileError {
	return &ConfFileError{Path: path, Message: message}
}

// IsConfFileError reports whether err is a ConfFileError.
func IsConfFileError(err error) bool {
	var target *ConfFileError
	return errors.As(err, &target)
}

// ProcessNotFoundError reports a namespec absent from the local supervisor.
// Per the unknown-process error policy this never aborts the sequencer; a
// synthetic event is published instead so every peer observes the same
// outcome.
type ProcessNotFoundError struct {
	Namespec string
}

func (e *ProcessNotFoundError) Error() string {
	return fmt.Sprintf("process %q not found", e.Namespec)
}

func NewProcessNotFoundError(namespec string) *ProcessNotFoundError {
	return &ProcessNotFoundError{Namespec: namespec}
}

// IsProcessNotFound reports whether err is a ProcessNotFoundError.
func IsProcessNotFound(err error) bool {
	var target *ProcessNotFoundError
	return errors.As(err, &target)
}

// ApplicationNotFoundError reports a reference to an application absent
// from the rules-derived application set.
type ApplicationNotFoundError struct {
	ApplicationName string
}

func (e *ApplicationNotFoundError) Error() string {
	return fmt.Sprintf("application %q not found", e.ApplicationName)
}

func NewApplicationNotFoundError(name string) *ApplicationNotFoundError {
	return &ApplicationNotFoundError{ApplicationName: name}
}

// IsApplicationNotFound reports whether err is an ApplicationNotFoundError.
func IsApplicationNotFound(err error) bool {
	var target *ApplicationNotFoundError
	return errors.As(err, &target)
}

// NoResourceAvailableError reports a placement failure: no eligible address
// could accept a process under the current strategy and loading constraints.
type NoResourceAvailableError struct {
	Namespec string
}

func (e *NoResourceAvailableError) Error() string {
	return fmt.Sprintf("no resource available for %q", e.Namespec)
}

func NewNoResourceAvailableError(namespec string) *NoResourceAvailableError {
	return &NoResourceAvailableError{Namespec: namespec}
}
