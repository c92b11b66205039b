package domain

import "fmt"

// Error types for consistent error handling across the backend.

// ErrFormat indicates a malformed document (CNPJ/CNAE) or field value.
// Blocks submission; shown inline next to the offending field.
type ErrFormat struct {
	Field   string
	Message string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("formato inválido em '%s': %s", e.Field, e.Message)
}

// ErrChecksum indicates a CNPJ whose verification digits do not match.
type ErrChecksum struct {
	Field string
}

func (e *ErrChecksum) Error() string {
	return fmt.Sprintf("dígitos verificadores inválidos em '%s'", e.Field)
}

// ErrValidation indicates a business-rule violation in the snapshot
// (e.g. monophasic revenue exceeding total revenue).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call
// (CNAE registry, CNPJ registry or the reasoning engine transport).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrSchema indicates the reasoning engine's reply violated the declared
// output schema. No partial analysis is ever produced alongside it.
type ErrSchema struct {
	Field  string
	Reason string
}

func (e *ErrSchema) Error() string {
	return fmt.Sprintf("engine reply violates schema [%s]: %s", e.Field, e.Reason)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
