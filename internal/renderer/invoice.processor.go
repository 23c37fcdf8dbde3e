package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/queue"
	"github.com/wicaksono/laundry-pos/pkg/logger"
	"github.com/wicaksono/laundry-pos/pkg/prom"
)

// ArtifactRenderer turns a snapshot into a file on disk.
type ArtifactRenderer interface {
	RenderToFile(snap *model.InvoiceSnapshot, dir string) (string, error)
}

type InvoiceRenderProcessor struct {
	renderer    ArtifactRenderer
	artifactDir string
	idempotency *IdempotencyService
}

func NewInvoiceRenderProcessor(renderer ArtifactRenderer, artifactDir string, idempotency *IdempotencyService) *InvoiceRenderProcessor {
	return &InvoiceRenderProcessor{
		renderer:    renderer,
		artifactDir: artifactDir,
		idempotency: idempotency,
	}
}

func (p *InvoiceRenderProcessor) GetType() string {
	return "invoice"
}

// Process renders one queued invoice snapshot with idempotency guarantees
func (p *InvoiceRenderProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	// Step 1: Parse snapshot
	var snap model.InvoiceSnapshot
	err := json.Unmarshal(queueMessage.Data, &snap)
	if err != nil {
		logger.Error("Failed to unmarshal render job", "error", err)
		prom.IncInvoiceRendered("invalid")
		return err // Return error to trigger DLQ move
	}

	jobID := queueMessage.Metadata["job_id"]
	if jobID == "" {
		// Old publishers carried no job id, fall back to the stream entry id
		jobID = queueMessage.ID
	}

	// Step 2: Acquire render lock and check idempotency
	renderCtx, err := p.idempotency.AcquireRenderLock(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrAlreadyRendered) {
			// Artifact already produced - ACK to remove from queue
			logger.Info("Render job already completed, skipping", "job_id", jobID, "invoice", snap.InvoiceNumber)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			// Max retries exceeded - give up and ACK to move on
			logger.Error("Max render retries exceeded", "job_id", jobID, "invoice", snap.InvoiceNumber)
			prom.IncInvoiceRendered("dropped")
			return nil // ACK to move to DLQ
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another renderer is on it - NACK to retry later
			logger.Info("Lock held by another renderer, will retry", "job_id", jobID)
			return errors.New("lock held by another renderer")
		}
		// Unexpected error - NACK to retry
		logger.Error("Failed to acquire lock", "job_id", jobID, "error", err)
		return err
	}

	// Ensure lock is released on exit (if not already marked success/failure)
	defer func() {
		if renderCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, renderCtx)
		}
	}()

	logger.Info("Rendering invoice",
		"job_id", jobID,
		"invoice", snap.InvoiceNumber,
		"retry_count", renderCtx.RetryCount,
		"is_retry", renderCtx.IsRetry)

	// Step 3: Produce the artifact
	start := time.Now()
	path, err := p.renderer.RenderToFile(&snap, p.artifactDir)
	if err != nil {
		// Step 4a: Rendering failed - mark failure and retry
		logger.Error("Failed to render invoice", "job_id", jobID, "invoice", snap.InvoiceNumber, "error", err)
		prom.IncInvoiceRendered("failed")
		if markErr := p.idempotency.MarkFailure(ctx, renderCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "job_id", jobID, "error", markErr)
		}
		return err // NACK to retry from queue
	}

	// Step 4b: Rendering succeeded - record metrics and mark success
	prom.ObserveInvoiceRenderDuration(time.Since(start).Seconds(), "success")
	prom.IncInvoiceRendered("success")

	logger.Info("Invoice rendered",
		"job_id", jobID,
		"invoice", snap.InvoiceNumber,
		"path", path,
		"retry_count", renderCtx.RetryCount)

	if markErr := p.idempotency.MarkSuccess(ctx, renderCtx); markErr != nil {
		logger.Error("Failed to mark success", "job_id", jobID, "error", markErr)
		// Continue - the artifact exists on disk
	}

	return nil // ACK message
}
