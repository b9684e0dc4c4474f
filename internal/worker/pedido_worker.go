package worker

// pedido_worker.go
// Procesa jobs de QueuePedidos: toma un pedido recién colocado, genera el PDF
// de confirmación y encola el email al cliente con el PDF adjunto.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/infra"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PedidoJobPayload is the job envelope sent to QueuePedidos.
type PedidoJobPayload struct {
	PedidoID string `json:"pedido_id"`
}

// PedidoWorker genera la confirmación de un pedido colocado.
type PedidoWorker struct {
	pedidoRepo     repository.PedidoRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
}

func NewPedidoWorker(pedidoRepo repository.PedidoRepository, dispatcher *Dispatcher, pdfStoragePath string) *PedidoWorker {
	return &PedidoWorker{
		pedidoRepo:     pedidoRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single pedido job:
//  1. Fetch the Pedido (with items + cliente) from DB
//  2. Generate the confirmation PDF
//  3. Enqueue the email job with the PDF attached (if the client has email)
func (w *PedidoWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PedidoJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("pedido_worker: invalid payload")
		return
	}

	pedidoID, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		log.Error().Str("pedido_id", payload.PedidoID).Msg("pedido_worker: invalid pedido_id")
		return
	}

	pedido, err := w.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		log.Error().Err(err).Str("pedido_id", payload.PedidoID).
			Msg("pedido_worker: pedido not found")
		return
	}

	pdfPath, err := infra.GeneratePedidoPDF(pedido, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Str("pedido_id", payload.PedidoID).
			Msg("pedido_worker: PDF generation failed")
		return
	}
	log.Info().Str("pdf", pdfPath).Int("numero", pedido.NumeroPedido).
		Msg("pedido_worker: confirmación generada")

	if pedido.Cliente == nil || pedido.Cliente.Email == nil || *pedido.Cliente.Email == "" {
		log.Warn().Str("pedido_id", payload.PedidoID).
			Msg("pedido_worker: cliente sin email — no se envía confirmación")
		return
	}

	emailPayload := EmailJobPayload{
		To:         []string{*pedido.Cliente.Email},
		Subject:    fmt.Sprintf("FarmaCruz — Confirmación de pedido N° %d", pedido.NumeroPedido),
		Body: fmt.Sprintf(
			"Hemos recibido su pedido N° %d por un total de $%s.\n\nAdjuntamos la confirmación en PDF.\n\nGracias por su preferencia.",
			pedido.NumeroPedido, pedido.Total.StringFixed(2),
		),
		AttachPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailPayload); err != nil {
		log.Error().Err(err).Str("pedido_id", payload.PedidoID).
			Msg("pedido_worker: no se pudo encolar el email")
	}
}
