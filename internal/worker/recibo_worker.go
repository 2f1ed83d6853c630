package worker

// recibo_worker.go
// Processes receipt jobs from QueueRecibo: renders the thermal-ticket PDF for
// a completed sale and, when the customer left an email, chains an email job.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/infra"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReciboJobPayload is the job envelope sent to QueueRecibo.
type ReciboJobPayload struct {
	VentaID      string  `json:"venta_id"`
	EmailCliente *string `json:"email_cliente,omitempty"`
}

type ReciboWorker struct {
	ventaRepo      repository.VentaRepository
	dispatcher     *Dispatcher
	rdb            *redis.Client
	pdfStoragePath string
}

func NewReciboWorker(ventaRepo repository.VentaRepository, dispatcher *Dispatcher, rdb *redis.Client, pdfStoragePath string) *ReciboWorker {
	return &ReciboWorker{
		ventaRepo:      ventaRepo,
		dispatcher:     dispatcher,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process renders the PDF receipt for one sale. Generation is retried with
// backoff; a job that still fails goes to the DLQ. The sale itself is already
// committed — nothing here can affect stock or totals.
func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReciboJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recibo_worker: invalid payload")
		return
	}

	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("recibo_worker: invalid venta_id")
		return
	}

	venta, err := w.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		// The sale may have been deleted between enqueue and processing.
		log.Warn().Err(err).Str("venta_id", payload.VentaID).Msg("recibo_worker: venta not found, skipping")
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReciboPDF(venta, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("venta_id", payload.VentaID).
				Msg("recibo_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		SendToDLQ(ctx, w.rdb, QueueRecibo, "recibo", raw, fmt.Sprintf("PDF generation failed: %v", genErr), 3)
		return
	}
	log.Info().Str("pdf", pdfPath).Str("numero_venta", venta.NumeroVenta).Msg("recibo_worker: receipt generated")

	if payload.EmailCliente != nil && *payload.EmailCliente != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.EmailCliente,
			Subject: fmt.Sprintf("Recibo FerreTrack — Venta %s", venta.NumeroVenta),
			Body:    fmt.Sprintf("Adjunto encontrarás el recibo de tu compra.\nTotal: $%s", venta.Total.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.EmailCliente).Msg("recibo_worker: failed to enqueue email")
		}
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
