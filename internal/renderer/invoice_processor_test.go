package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/queue"
)

type stubArtifactRenderer struct {
	calls int
	fail  bool
	last  *model.InvoiceSnapshot
}

func (s *stubArtifactRenderer) RenderToFile(snap *model.InvoiceSnapshot, dir string) (string, error) {
	s.calls++
	s.last = snap
	if s.fail {
		return "", errors.New("disk full")
	}
	return dir + "/Invoice_" + snap.InvoiceNumber + ".pdf", nil
}

func renderJob(t *testing.T, jobID string, snap model.InvoiceSnapshot) *queue.Message {
	t.Helper()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	return &queue.Message{
		ID:       "0-1",
		Data:     data,
		Metadata: map[string]string{"job_id": jobID},
	}
}

func TestInvoiceRenderProcessor_Process(t *testing.T) {
	idempotency := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	renderer := &stubArtifactRenderer{}
	processor := NewInvoiceRenderProcessor(renderer, t.TempDir(), idempotency)

	snap := model.InvoiceSnapshot{
		InvoiceNumber: "INV-20240601-0001",
		CustomerName:  "Budi",
		FinalAmount:   decimal.NewFromInt(12500),
	}

	msg := renderJob(t, "job-a", snap)
	if err := processor.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if renderer.calls != 1 {
		t.Errorf("Expected 1 render call, got %d", renderer.calls)
	}
	if renderer.last.InvoiceNumber != snap.InvoiceNumber {
		t.Errorf("Expected invoice %s, got %s", snap.InvoiceNumber, renderer.last.InvoiceNumber)
	}

	// Redelivery of the same job is acked without rendering again
	if err := processor.Process(context.Background(), renderJob(t, "job-a", snap)); err != nil {
		t.Fatalf("Redelivery should be acked, got: %v", err)
	}
	if renderer.calls != 1 {
		t.Errorf("Expected redelivery to skip rendering, got %d calls", renderer.calls)
	}
}

func TestInvoiceRenderProcessor_Process_InvalidPayload(t *testing.T) {
	idempotency := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	renderer := &stubArtifactRenderer{}
	processor := NewInvoiceRenderProcessor(renderer, t.TempDir(), idempotency)

	msg := &queue.Message{ID: "0-2", Data: []byte("not json")}
	if err := processor.Process(context.Background(), msg); err == nil {
		t.Fatal("Expected error for invalid payload")
	}
	if renderer.calls != 0 {
		t.Errorf("Expected no render calls, got %d", renderer.calls)
	}
}

func TestInvoiceRenderProcessor_Process_RetriesThenDrops(t *testing.T) {
	idempotency := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	renderer := &stubArtifactRenderer{fail: true}
	processor := NewInvoiceRenderProcessor(renderer, t.TempDir(), idempotency)

	snap := model.InvoiceSnapshot{InvoiceNumber: "INV-20240601-0002"}

	// Three failing deliveries consume the retry budget
	for i := 0; i < 3; i++ {
		if err := processor.Process(context.Background(), renderJob(t, "job-b", snap)); err == nil {
			t.Fatalf("Delivery %d should have failed", i)
		}
	}

	// The fourth delivery is acked so the message leaves the queue
	if err := processor.Process(context.Background(), renderJob(t, "job-b", snap)); err != nil {
		t.Fatalf("Exhausted job should be acked, got: %v", err)
	}
	if renderer.calls != 3 {
		t.Errorf("Expected 3 render attempts, got %d", renderer.calls)
	}
}
