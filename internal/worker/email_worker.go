package worker

// email_worker.go
// Procesa jobs de QueueEmail: confirmaciones de pedido con PDF adjunto y
// mensajes del formulario de contacto. El envío pasa por el circuit breaker
// de SMTP; un fallo programa un reintento con backoff (ver retry_cron.go).

import (
	"context"
	"encoding/json"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	AttachPath string   `json:"attach_path,omitempty"`
	ReplyTo    string   `json:"reply_to,omitempty"`
	// Attempts cuenta los envíos fallidos previos de este mismo job.
	Attempts int `json:"attempts,omitempty"`
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process sends an email through the SMTP circuit breaker. Failures are
// rescheduled with backoff; after MaxEmailAttempts the job lands in the DLQ.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if len(payload.To) == 0 {
		log.Warn().Msg("email_worker: empty recipient list — skipping")
		return
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.To, payload.Subject, payload.Body, payload.AttachPath, payload.ReplyTo)
	})
	if err != nil {
		payload.Attempts++
		ScheduleEmailRetry(ctx, w.rdb, payload, err)
		return
	}

	log.Info().Strs("to", payload.To).Str("subject", payload.Subject).
		Msg("email_worker: mensaje enviado")
}
