package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wicaksono/laundry-pos/pkg/logger"
	"github.com/wicaksono/laundry-pos/pkg/redis"
)

var (
	ErrAlreadyRendered    = errors.New("invoice already rendered")
	ErrLockAcquireFailed  = errors.New("failed to acquire render lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	RenderedTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	RenderedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:           30 * time.Second,
		RenderedTTL:       24 * time.Hour,
		MaxRetries:        3,
		RetryKeyPrefix:    "render:retry:",
		LockKeyPrefix:     "render:lock:",
		RenderedKeyPrefix: "render:done:",
	}
}

type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type RenderContext struct {
	JobID        string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

func (s *IdempotencyService) AcquireRenderLock(ctx context.Context, jobID string) (*RenderContext, error) {
	// Step 1: Check if already rendered (long-term marker)
	renderedKey := s.config.RenderedKeyPrefix + jobID
	exists, err := s.redis.Exist(renderedKey)
	if err != nil {
		logger.Warn("Failed to check rendered status", "job_id", jobID, "error", err)
		// Continue even if check fails - a duplicate artifact is harmless
	} else if exists > 0 {
		logger.Info("Invoice already rendered, skipping", "job_id", jobID)
		return nil, ErrAlreadyRendered
	}

	// Step 2: Get current retry count
	retryKey := s.config.RetryKeyPrefix + jobID
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	// Step 3: Check if max retries exceeded
	if retryCount >= s.config.MaxRetries {
		logger.Error("Max retries exceeded for render job", "job_id", jobID, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: job_id=%s, retries=%d", ErrMaxRetriesExceeded, jobID, retryCount)
	}

	// Step 4: Acquire short-term render lock (prevents concurrent rendering)
	lockKey := s.config.LockKeyPrefix + jobID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire lock", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("Lock already held by another renderer", "job_id", jobID)
		return nil, ErrLockAcquireFailed
	}

	logger.Info("Render lock acquired",
		"job_id", jobID,
		"retry_count", retryCount,
		"lock_ttl", s.config.LockTTL)

	return &RenderContext{
		JobID:        jobID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkSuccess(ctx context.Context, rc *RenderContext) error {
	jobID := rc.JobID

	// Step 1: Set long-term rendered marker (24 hours)
	renderedKey := s.config.RenderedKeyPrefix + jobID
	err := s.redis.Set(renderedKey, []byte("1"), s.config.RenderedTTL)
	if err != nil {
		logger.Error("Failed to mark invoice as rendered", "job_id", jobID, "error", err)
		return fmt.Errorf("failed to mark as rendered: %w", err)
	}

	// Step 2: Clean up lock and retry counter
	s.cleanup(ctx, rc)

	logger.Info("Invoice marked as rendered",
		"job_id", jobID,
		"retry_count", rc.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, rc *RenderContext, reason error) error {
	jobID := rc.JobID

	// Step 1: Increment retry counter
	retryKey := s.config.RetryKeyPrefix + jobID
	newRetryCount := rc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// Keep retry counter for longer to track across retries
	err := s.redis.Set(retryKey, retryValue, s.config.RenderedTTL)
	if err != nil {
		logger.Error("Failed to increment retry counter", "job_id", jobID, "error", err)
	}

	// Step 2: Remove lock to allow retry
	lockKey := s.config.LockKeyPrefix + jobID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to remove lock", "job_id", jobID, "error", err)
	}

	logger.Warn("Invoice rendering failed, will retry",
		"job_id", jobID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, rc *RenderContext) error {
	if rc == nil || !rc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + rc.JobID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to release lock", "job_id", rc.JobID, "error", err)
		return err
	}

	rc.lockAcquired = false
	logger.Debug("Render lock released", "job_id", rc.JobID)
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, rc *RenderContext) {
	jobID := rc.JobID

	// Remove lock
	lockKey := s.config.LockKeyPrefix + jobID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to cleanup lock", "job_id", jobID, "error", err)
	}

	// Remove retry counter (no longer needed)
	retryKey := s.config.RetryKeyPrefix + jobID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("Failed to cleanup retry counter", "job_id", jobID, "error", err)
	}

	rc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, jobID string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + jobID
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsRendered(ctx context.Context, jobID string) (bool, error) {
	renderedKey := s.config.RenderedKeyPrefix + jobID
	exists, err := s.redis.Exist(renderedKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
