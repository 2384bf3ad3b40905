package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipts: renders a PDF receipt for the
// order and emails it to the receiver. SMTP sends go through the circuit
// breaker; jobs that exhaust their retries land in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"propshop/internal/infra"
	"propshop/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxReceiptAttempts = 3

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	OrderID string `json:"order_id"`
	ToEmail string `json:"to_email"`
}

// ReceiptWorker renders and emails PDF receipts for committed orders.
type ReceiptWorker struct {
	orderRepo    repository.OrderRepository
	mailer       *infra.Mailer
	cb           *infra.CircuitBreaker
	rdb          *redis.Client
	storagePath  string
	businessName string
}

func NewReceiptWorker(
	orderRepo repository.OrderRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
	storagePath string,
	businessName string,
) *ReceiptWorker {
	return &ReceiptWorker{
		orderRepo:    orderRepo,
		mailer:       mailer,
		cb:           cb,
		rdb:          rdb,
		storagePath:  storagePath,
		businessName: businessName,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the order (with items) from DB
//  3. Render the PDF receipt
//  4. Email it through the circuit breaker, with backoff retries
//  5. Exhausted retries go to the DLQ
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Str("order_id", payload.OrderID).Msg("receipt_worker: empty to_email, skipping")
		return
	}

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		log.Error().Str("order_id", payload.OrderID).Msg("receipt_worker: invalid order_id")
		return
	}

	order, err := w.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: order not found")
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(order, w.businessName, w.storagePath)
	if err != nil {
		log.Error().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: PDF generation failed")
		SendToDLQ(ctx, w.rdb, QueueReceipts, "receipt", raw, fmt.Sprintf("pdf generation: %v", err), 1)
		return
	}

	subject := fmt.Sprintf("Your receipt for order %s", order.OrderNumber)
	body := fmt.Sprintf("Hi %s,\n\nthanks for your order %s. Your receipt is attached.\n\n%s",
		order.ReceiverName, order.OrderNumber, w.businessName)

	sendErr := withRetry(ctx, maxReceiptAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			return w.mailer.SendReceipt(payload.ToEmail, subject, body, pdfPath)
		})
	})
	if sendErr != nil {
		log.Error().Err(sendErr).
			Str("order_id", payload.OrderID).
			Str("to", payload.ToEmail).
			Msg("receipt_worker: all send attempts failed")
		SendToDLQ(ctx, w.rdb, QueueReceipts, "receipt", raw,
			fmt.Sprintf("smtp send after %d attempts: %v", maxReceiptAttempts, sendErr),
			maxReceiptAttempts)
		return
	}

	log.Info().
		Str("order_id", payload.OrderID).
		Str("to", payload.ToEmail).
		Msg("receipt_worker: receipt sent")
}

// withRetry runs fn up to maxAttempts times with exponential backoff
// (1s, 2s, 4s, ...). It stops early when the context is cancelled.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		backoff := time.Duration(1<<(attempt-1)) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
