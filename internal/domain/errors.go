package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
// Los errores tipados de abajo responden a errors.Is contra estos sentinelas.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto de concurrencia")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("fallo de persistencia")
	ErrDuplicate         = errors.New("registro duplicado")
)

// FieldError describe un campo inválido o ausente en la entrada.
type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Missing bool   `json:"missing,omitempty"`
}

// ValidationError entrada mal formada o incompleta. Nunca se reintenta automáticamente.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError construye el error con un solo campo inválido.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// NewMissingFieldsError construye el error para campos obligatorios vacíos.
func NewMissingFieldsError(fields ...string) *ValidationError {
	v := &ValidationError{}
	for _, f := range fields {
		v.Fields = append(v.Fields, FieldError{Field: f, Reason: "requerido", Missing: true})
	}
	return v
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validación: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// MissingFields devuelve solo los campos obligatorios ausentes.
func (e *ValidationError) MissingFields() []string {
	var out []string
	for _, f := range e.Fields {
		if f.Missing {
			out = append(out, f.Field)
		}
	}
	return out
}

// NotFoundError entidad referenciada inexistente o de otro negocio.
// Un businessId distinto se reporta igual que una entidad inexistente.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError rechazo de negocio: la salida dejaría stock negativo.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ConcurrencyConflictError la unidad de trabajo perdió una carrera de serialización
// (deadlock, lock_timeout, serialization_failure). Se puede reintentar completa.
type ConcurrencyConflictError struct {
	Op  string
	Err error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Err == nil {
		return "conflicto de concurrencia en " + e.Op
	}
	return fmt.Sprintf("conflicto de concurrencia en %s: %v", e.Op, e.Err)
}

func (e *ConcurrencyConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }

// StorageError fallo transitorio de la capa de persistencia (incluye timeouts).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("persistencia %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetryable indica si el llamador puede repetir la operación completa desde cero.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStorage)
}
