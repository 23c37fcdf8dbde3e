package renderer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wicaksono/laundry-pos/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

// Mock Redis adapter for testing
type mockRedisAdapter struct {
	data map[string][]byte
	ttls map[string]time.Time
}

func newMockRedisAdapter() *mockRedisAdapter {
	return &mockRedisAdapter{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Time),
	}
}

func (m *mockRedisAdapter) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value
	if ttl > 0 {
		m.ttls[key] = time.Now().Add(ttl)
	}
	return true, nil
}

func (m *mockRedisAdapter) Set(key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	if ttl > 0 {
		m.ttls[key] = time.Now().Add(ttl)
	}
	return nil
}

func (m *mockRedisAdapter) Get(key string) ([]byte, error) {
	if ttl, ok := m.ttls[key]; ok && time.Now().After(ttl) {
		delete(m.data, key)
		delete(m.ttls, key)
		return nil, redis.NilError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, redis.NilError
}

func (m *mockRedisAdapter) Del(key string) error {
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *mockRedisAdapter) Exist(key string) (int64, error) {
	if ttl, ok := m.ttls[key]; ok && time.Now().After(ttl) {
		delete(m.data, key)
		delete(m.ttls, key)
		return 0, nil
	}
	if _, ok := m.data[key]; ok {
		return 1, nil
	}
	return 0, nil
}

// Stub implementations for unused methods
func (m *mockRedisAdapter) SMembers(key string) ([]string, error)         { return nil, nil }
func (m *mockRedisAdapter) SAdd(key string, value ...interface{}) error   { return nil }
func (m *mockRedisAdapter) HGet(key string, field string) ([]byte, error) { return nil, nil }
func (m *mockRedisAdapter) HGetAll(key string) (map[string]string, error) { return nil, nil }
func (m *mockRedisAdapter) HScan(key string, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return nil, 0, nil
}
func (m *mockRedisAdapter) SScan(key string, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return nil, 0, nil
}
func (m *mockRedisAdapter) HGetMultiple(keys ...string) (map[string]map[string]string, error) {
	return nil, nil
}
func (m *mockRedisAdapter) HSetIfNotExists(key string, field string, value interface{}) error {
	return nil
}
func (m *mockRedisAdapter) HSet(key string, field string, value interface{}) error { return nil }
func (m *mockRedisAdapter) HIncrement(key string, field string, value int64) error { return nil }
func (m *mockRedisAdapter) Incr(key string) (int64, error)                         { return 0, nil }
func (m *mockRedisAdapter) Expire(key string, ttl time.Duration) error             { return nil }
func (m *mockRedisAdapter) HIncrementBatch(coreName, keySuffix string, fieldAndValues map[string]int64, ttl time.Duration) error {
	return nil
}
func (m *mockRedisAdapter) TxPipelined(fn func(goredis.Pipeliner) error) ([]goredis.Cmder, error) {
	return nil, nil
}
func (m *mockRedisAdapter) Client() goredis.UniversalClient { return nil }
func (m *mockRedisAdapter) XAdd(key string, values map[string]interface{}) (string, error) {
	return "", nil
}
func (m *mockRedisAdapter) XAddWithID(key string, id string, values map[string]interface{}) (string, error) {
	return "", nil
}
func (m *mockRedisAdapter) XRead(key string, id string, count int64) ([]redis.StreamMessage, error) {
	return nil, nil
}
func (m *mockRedisAdapter) XReadGroup(group, consumer, key, id string, count int64) ([]redis.StreamMessage, error) {
	return nil, nil
}
func (m *mockRedisAdapter) XAck(key, group string, ids ...string) error           { return nil }
func (m *mockRedisAdapter) XGroupCreate(key, group, start string) error           { return nil }
func (m *mockRedisAdapter) XGroupCreateMkStream(key, group, start string) error   { return nil }
func (m *mockRedisAdapter) XLen(key string) (int64, error)                        { return 0, nil }
func (m *mockRedisAdapter) XDel(key string, ids ...string) error                  { return nil }
func (m *mockRedisAdapter) XTrim(key string, maxLen int64) error                  { return nil }
func (m *mockRedisAdapter) XTrimApprox(key string, maxLen int64) error            { return nil }
func (m *mockRedisAdapter) XPending(key, group string) (*goredis.XPending, error) { return nil, nil }
func (m *mockRedisAdapter) XPendingExt(key, group string, start, end string, count int64) ([]goredis.XPendingExt, error) {
	return nil, nil
}
func (m *mockRedisAdapter) XClaim(key, group, consumer string, minIdle time.Duration, ids ...string) ([]redis.StreamMessage, error) {
	return nil, nil
}

func TestIdempotencyService_AcquireRenderLock_FirstAttempt(t *testing.T) {
	mockRedis := newMockRedisAdapter()
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(mockRedis, config)

	ctx := context.Background()
	jobID := "job-1"

	// First attempt should succeed
	renderCtx, err := service.AcquireRenderLock(ctx, jobID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if renderCtx == nil {
		t.Fatal("Expected render context, got nil")
	}

	if renderCtx.JobID != jobID {
		t.Errorf("Expected job ID %s, got %s", jobID, renderCtx.JobID)
	}

	if renderCtx.RetryCount != 0 {
		t.Errorf("Expected retry count 0, got %d", renderCtx.RetryCount)
	}

	if renderCtx.IsRetry {
		t.Error("Expected IsRetry to be false")
	}

	if !renderCtx.lockAcquired {
		t.Error("Expected lock to be acquired")
	}
}

func TestIdempotencyService_AcquireRenderLock_Concurrent(t *testing.T) {
	mockRedis := newMockRedisAdapter()
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(mockRedis, config)

	ctx := context.Background()
	jobID := "job-2"

	// First renderer acquires lock
	renderCtx1, err := service.AcquireRenderLock(ctx, jobID)
	if err != nil {
		t.Fatalf("First lock acquisition failed: %v", err)
	}

	// Second renderer tries to acquire same lock
	renderCtx2, err := service.AcquireRenderLock(ctx, jobID)
	if err != ErrLockAcquireFailed {
		t.Errorf("Expected ErrLockAcquireFailed, got: %v", err)
	}

	if renderCtx2 != nil {
		t.Error("Expected nil context for second renderer")
	}

	// First renderer still has lock
	if !renderCtx1.lockAcquired {
		t.Error("First renderer should still have lock")
	}
}

func TestIdempotencyService_MarkSuccess(t *testing.T) {
	mockRedis := newMockRedisAdapter()
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(mockRedis, config)

	ctx := context.Background()
	jobID := "job-3"

	// Acquire lock
	renderCtx, err := service.AcquireRenderLock(ctx, jobID)
	if err != nil {
		t.Fatalf("Lock acquisition failed: %v", err)
	}

	// Mark as success
	err = service.MarkSuccess(ctx, renderCtx)
	if err != nil {
		t.Fatalf("MarkSuccess failed: %v", err)
	}

	// Verify rendered marker exists
	rendered, err := service.IsRendered(ctx, jobID)
	if err != nil {
		t.Fatalf("IsRendered check failed: %v", err)
	}

	if !rendered {
		t.Error("Job should be marked as rendered")
	}

	// A second acquisition should report the job as done
	_, err = service.AcquireRenderLock(ctx, jobID)
	if !errors.Is(err, ErrAlreadyRendered) {
		t.Errorf("Expected ErrAlreadyRendered, got: %v", err)
	}
}

func TestIdempotencyService_MarkFailure(t *testing.T) {
	mockRedis := newMockRedisAdapter()
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(mockRedis, config)

	ctx := context.Background()
	jobID := "job-4"

	// Fail the job twice, the third acquisition still works
	for i := 0; i < 2; i++ {
		renderCtx, err := service.AcquireRenderLock(ctx, jobID)
		if err != nil {
			t.Fatalf("Lock acquisition %d failed: %v", i, err)
		}
		if renderCtx.RetryCount != i {
			t.Errorf("Expected retry count %d, got %d", i, renderCtx.RetryCount)
		}
		if err := service.MarkFailure(ctx, renderCtx, errors.New("render failed")); err != nil {
			t.Fatalf("MarkFailure failed: %v", err)
		}
	}

	count, err := service.GetRetryCount(ctx, jobID)
	if err != nil {
		t.Fatalf("GetRetryCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected retry count 2, got %d", count)
	}

	renderCtx, err := service.AcquireRenderLock(ctx, jobID)
	if err != nil {
		t.Fatalf("Third acquisition failed: %v", err)
	}
	if !renderCtx.IsRetry {
		t.Error("Expected IsRetry to be true")
	}

	// A third failure exhausts the retry budget
	if err := service.MarkFailure(ctx, renderCtx, errors.New("render failed")); err != nil {
		t.Fatalf("MarkFailure failed: %v", err)
	}
	_, err = service.AcquireRenderLock(ctx, jobID)
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Expected ErrMaxRetriesExceeded, got: %v", err)
	}
}

func TestIdempotencyService_ReleaseLock(t *testing.T) {
	mockRedis := newMockRedisAdapter()
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(mockRedis, config)

	ctx := context.Background()
	jobID := "job-5"

	renderCtx, err := service.AcquireRenderLock(ctx, jobID)
	if err != nil {
		t.Fatalf("Lock acquisition failed: %v", err)
	}

	if err := service.ReleaseLock(ctx, renderCtx); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	// Lock is free again
	renderCtx2, err := service.AcquireRenderLock(ctx, jobID)
	if err != nil {
		t.Fatalf("Reacquisition failed: %v", err)
	}
	if renderCtx2 == nil {
		t.Fatal("Expected render context after release")
	}
}
