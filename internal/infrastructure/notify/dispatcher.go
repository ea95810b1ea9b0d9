// Package notify entrega las señales de stock bajo fuera del camino transaccional:
// una cola acotada en memoria alimenta N workers que escriben en un Sink (log, Redis o Kafka).
package notify

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

var _ ports.LowStockNotifier = (*Dispatcher)(nil)

var (
	// ErrQueueFull la cola está llena; el evento se descarta.
	ErrQueueFull = errors.New("cola de notificaciones llena")
	// ErrClosed el dispatcher ya no acepta eventos.
	ErrClosed = errors.New("dispatcher cerrado")
)

// Sink destino final de un evento.
type Sink interface {
	Deliver(ctx context.Context, event ports.LowStockEvent) error
}

// Dispatcher implementa LowStockNotifier encolando sin bloquear al llamador.
type Dispatcher struct {
	sink    Sink
	workers int
	queue   chan ports.LowStockEvent
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
}

// NewDispatcher construye el dispatcher. Llamar Start antes de notificar.
func NewDispatcher(sink Sink, workers, queueSize int, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		sink:    sink,
		workers: workers,
		queue:   make(chan ports.LowStockEvent, queueSize),
		log:     log.Component("notifier"),
	}
}

// Start lanza los workers. ctx se usa para las entregas; cancelarlo aborta las entregas en curso.
func (d *Dispatcher) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		worker := i
		g.Go(func() error {
			d.run(gctx, worker)
			return nil
		})
	}
	d.mu.Lock()
	d.group = g
	d.mu.Unlock()
	d.log.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("dispatcher de stock bajo iniciado")
}

func (d *Dispatcher) run(ctx context.Context, worker int) {
	for ev := range d.queue {
		if err := d.sink.Deliver(ctx, ev); err != nil {
			d.log.Warn().Err(err).
				Int("worker", worker).
				Str("business_id", ev.BusinessID).
				Str("product_id", ev.ProductID).
				Msg("entrega de stock bajo fallida")
		}
	}
}

// Notify encola el evento. Nunca bloquea: si la cola está llena devuelve ErrQueueFull.
func (d *Dispatcher) Notify(_ context.Context, event ports.LowStockEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close deja de aceptar eventos y espera a que los workers vacíen la cola o venza ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	g := d.group
	d.mu.Unlock()

	if g == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
