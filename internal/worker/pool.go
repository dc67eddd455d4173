package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueContratoFirmado = "jobs:contrato_firmado"

	JobContratoFirmado = "contrato_firmado"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Processor handles the payload of one job type. A returned error sends the
// job to the dead letter queue.
type Processor interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb redis.Cmdable
}

func NewDispatcher(rdb redis.Cmdable) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueContratoFirmado pushes the post-signature job of a contract.
func (d *Dispatcher) EnqueueContratoFirmado(ctx context.Context, p ContratoFirmadoPayload) error {
	return d.enqueue(ctx, QueueContratoFirmado, JobContratoFirmado, p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Processor) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handlers map[string]Processor) {
	queues := []string{QueueContratoFirmado}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb redis.Cmdable, handlers map[string]Processor, queue, raw string) {
	job, err := despachar(ctx, handlers, raw)
	if err == nil {
		return
	}
	log.Error().Str("queue", queue).Str("type", job.Type).Err(err).Msg("job failed")
	SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), maxAttempts)
}

// despachar decodes raw and runs the handler registered for its type.
func despachar(ctx context.Context, handlers map[string]Processor, raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{Payload: json.RawMessage(raw)}, fmt.Errorf("unmarshal job: %w", err)
	}
	h, ok := handlers[job.Type]
	if !ok {
		return job, fmt.Errorf("no handler for job type %q", job.Type)
	}
	log.Info().Str("type", job.Type).Msg("processing job")
	return job, h.Process(ctx, job.Payload)
}
