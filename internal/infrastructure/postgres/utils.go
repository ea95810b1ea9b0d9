package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/sales-ledger/internal/domain"
)

// SQLSTATE que indican que la unidad de trabajo perdió una carrera y puede repetirse.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03" // lock_timeout
	codeUniqueViolation      = "23505"
)

// classify traduce un error del driver a la taxonomía de dominio.
// Los errores de dominio pasan sin cambios; cualquier otro fallo (incluidos timeouts
// de contexto y conexiones caídas) es StorageError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return &domain.ConcurrencyConflictError{Op: op, Err: err}
		}
	}
	return &domain.StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrStorage) ||
		errors.Is(err, domain.ErrDuplicate)
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
