package worker

// retry_cron.go
// Goroutine de fondo que reintenta emails fallidos. Los jobs fallidos se
// agendan en un sorted set de redis (score = unix del próximo intento) con
// backoff exponencial; al agotar los intentos pasan a la DLQ. El cron respeta
// el circuit breaker de SMTP para no martillar un relay caído.

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	RetryZSet = "jobs:email:retry"

	// MaxEmailAttempts cuenta el envío original más los reintentos.
	MaxEmailAttempts = 4

	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// ScheduleEmailRetry agenda un reintento con backoff, o manda el job a la DLQ
// si ya agotó sus intentos.
func ScheduleEmailRetry(ctx context.Context, rdb *redis.Client, payload EmailJobPayload, cause error) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to marshal retry payload")
		return
	}

	if payload.Attempts >= MaxEmailAttempts {
		SendToDLQ(ctx, rdb, QueueEmail, "email", data,
			fmt.Sprintf("max attempts (%d) exceeded: %v", MaxEmailAttempts, cause),
			payload.Attempts)
		return
	}

	nextAt := time.Now().Add(computeRetryBackoff(payload.Attempts))
	if err := rdb.ZAdd(ctx, RetryZSet, redis.Z{
		Score:  float64(nextAt.Unix()),
		Member: data,
	}).Err(); err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to schedule retry")
		return
	}

	log.Warn().
		Strs("to", payload.To).
		Int("attempt", payload.Attempts).
		Time("next_retry_at", nextAt).
		Err(cause).
		Msg("retry_cron: envío fallido, reintento agendado")
}

// computeRetryBackoff: 1m, 4m, 9m… acotado a 30m.
func computeRetryBackoff(attempt int) time.Duration {
	d := time.Duration(attempt*attempt) * time.Minute
	if d < time.Minute {
		d = time.Minute
	}
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// re-enqueues due email retries. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processEmailRetries(ctx, rdb, cb)
			}
		}
	}()
}

func processEmailRetries(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker) {
	// If CB is open, skip entirely — don't hammer a downed relay
	if cb.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := rdb.ZRangeByScore(ctx, RetryZSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due retries")
		return
	}
	if len(due) == 0 {
		return
	}

	log.Info().Int("count", len(due)).Msg("retry_cron: re-enqueuing due email retries")

	for _, raw := range due {
		// Remove-then-enqueue: si el LPush falla el job se re-agenda en el
		// siguiente fallo de envío, no se duplica.
		if err := rdb.ZRem(ctx, RetryZSet, raw).Err(); err != nil {
			continue
		}
		job := Job{Type: "email", Payload: json.RawMessage(raw)}
		encoded, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if err := rdb.LPush(ctx, QueueEmail, encoded).Err(); err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to re-enqueue email job")
		}
	}
}
