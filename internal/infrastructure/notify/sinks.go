package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

// JobTypeLowStock tipo del sobre encolado en Redis.
const JobTypeLowStock = "low_stock"

// LogSink registra el evento; es el destino por defecto.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink de log.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSink{log: log.Component("low_stock")}
}

func (s *LogSink) Deliver(_ context.Context, ev ports.LowStockEvent) error {
	s.log.Warn().
		Str("business_id", ev.BusinessID).
		Str("product_id", ev.ProductID).
		Int64("stock_after", ev.StockAfter).
		Int64("min_stock_quantity", ev.MinStockQuantity).
		Str("movement_type", ev.MovementType).
		Str("reference", ev.Reference).
		Msg("stock bajo")
	return nil
}

// Job sobre genérico de la cola Redis (consumido con BRPOP).
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// redisPusher subconjunto de *redis.Client que usa el sink.
type redisPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink encola el evento en una lista Redis.
type RedisSink struct {
	rdb   redisPusher
	queue string
}

// NewRedisSink construye el sink. rdb suele ser *redis.Client.
func NewRedisSink(rdb redisPusher, queue string) *RedisSink {
	return &RedisSink{rdb: rdb, queue: queue}
}

func (s *RedisSink) Deliver(ctx context.Context, ev ports.LowStockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: JobTypeLowStock, Payload: payload})
	if err != nil {
		return err
	}
	if err := s.rdb.LPush(ctx, s.queue, encoded).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", s.queue, err)
	}
	return nil
}

// Producer escritor de mensajes Kafka (kafka.Writer instrumentado).
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaSink publica el evento en un tópico con el producto como clave,
// así los eventos de un mismo producto quedan en la misma partición.
type KafkaSink struct {
	producer Producer
}

// NewKafkaSink construye el sink.
func NewKafkaSink(producer Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Deliver(ctx context.Context, ev ports.LowStockEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.producer.WriteMessage(ctx, kafka.Message{
		Key:   []byte(ev.BusinessID + ":" + ev.ProductID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(JobTypeLowStock)},
		},
	})
}

// Close cierra el productor.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
