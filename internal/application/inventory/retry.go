package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/sales-ledger/internal/domain"
)

// RetryConflicts repite fn mientras falle por ErrConflict, hasta maxRetries reintentos.
// Cada intento es una unidad de trabajo completa desde cero. Otros errores se devuelven tal cual.
func RetryConflicts(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= maxRetries {
			return err
		}
		backoff := time.Duration(attempt+1) * 20 * time.Millisecond
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
	}
}
