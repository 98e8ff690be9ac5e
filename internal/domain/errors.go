package domain

import "errors"

var (
	// ErrInvalidSymbol is returned when a symbol string is malformed.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrDuplicateInstrument is returned when adding an instrument whose
	// symbol is already known with conflicting reference data.
	ErrDuplicateInstrument = errors.New("instrument already exists")

	// ErrDecode is wrapped by all wire codec decode failures so callers
	// can distinguish malformed payloads from not-found results.
	ErrDecode = errors.New("decode failed")

	// ErrDisposed is returned when operating on a disposed engine.
	ErrDisposed = errors.New("engine disposed")

	// ErrEngineRunning is returned when a lifecycle operation conflicts
	// with an in-progress run.
	ErrEngineRunning = errors.New("engine running")

	// ErrEngineStopped is returned when starting a run on a stopped
	// engine; a reset is required first.
	ErrEngineStopped = errors.New("engine stopped, reset required")
)

// ConfigError represents a configuration error (never recoverable by retry
// with the same input).
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ContractError is the panic payload for programming-error contract
// violations, such as mixing precisions in price arithmetic. These fail
// loudly rather than silently coercing.
type ContractError struct {
	Op     string
	Detail string
}

func NewContractError(op, detail string) *ContractError {
	return &ContractError{Op: op, Detail: detail}
}

func (e *ContractError) Error() string {
	return "contract violation [" + e.Op + "]: " + e.Detail
}

// DecodeError annotates a wire decode failure with the payload kind.
type DecodeError struct {
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return "decode error [" + e.Kind + "]: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
