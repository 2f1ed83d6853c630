package worker

// Jobs whose receipt or mail delivery exhausted their retries land in a dead
// letter list, one per source queue (dlq:jobs:recibos, dlq:jobs:email), where
// an operator can replay or discard them with redis-cli.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry preserves the original payload next to why it failed, so a job can
// be re-enqueued as-is once the cause is fixed.
type DLQEntry struct {
	OriginalQueue string          `json:"cola_original"`
	JobType       string          `json:"tipo"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"motivo"`
	FailedAt      string          `json:"fallo_en"` // RFC 3339, UTC
	Attempts      int             `json:"intentos"`
}

// SendToDLQ parks a failed job. Best-effort: a DLQ write failure is logged
// and the job is lost, which the log line makes loud enough to notice.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("cola", queue).Msg("dlq: no se pudo serializar la entrada")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq", dlqKey).Msg("dlq: no se pudo encolar, trabajo perdido")
		return
	}

	log.Warn().
		Str("cola", queue).
		Str("tipo", jobType).
		Str("motivo", reason).
		Int("intentos", attempts).
		Msg("dlq: trabajo movido a la cola muerta")
}

// DLQLength reports how many jobs sit parked for a queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
