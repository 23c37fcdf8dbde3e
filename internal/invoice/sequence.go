package invoice

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wicaksono/laundry-pos/pkg/redis"
)

// Numbers look like INV-20240601-0001: a fixed prefix, the receive date and
// a zero-padded per-day sequence.
const numberPrefix = "INV"

const seqKeyPrefix = "invoice:seq:"
const seqKeyTTL = 48 * time.Hour

// DatePrefix returns the shared prefix of every number issued on a day,
// including the trailing separator.
func DatePrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", numberPrefix, day.Format("20060102"))
}

// Format renders the full number for a day and sequence value.
func Format(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%04d", DatePrefix(day), seq)
}

// MaxSuffixStore reports the highest sequence already persisted for a
// prefix. The transaction repository implements it.
type MaxSuffixStore interface {
	MaxInvoiceSuffix(ctx context.Context, prefix string) (int64, error)
}

// Sequencer hands out candidate invoice numbers. Callers must still treat
// the storage unique index as the final authority and retry on collision.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (string, error)
}

// RedisSequencer allocates numbers from a per-day redis counter so
// concurrent registers never hand out the same candidate. The counter is
// seeded lazily from storage, which keeps it correct after a redis flush.
type RedisSequencer struct {
	redis redis.RedisAdapter
	store MaxSuffixStore
}

func NewRedisSequencer(r redis.RedisAdapter, store MaxSuffixStore) *RedisSequencer {
	return &RedisSequencer{
		redis: r,
		store: store,
	}
}

func (s *RedisSequencer) Next(ctx context.Context, day time.Time) (string, error) {
	key := seqKeyPrefix + day.Format("20060102")

	exists, err := s.redis.Exist(key)
	if err != nil {
		return "", err
	}
	if exists == 0 {
		max, err := s.store.MaxInvoiceSuffix(ctx, DatePrefix(day))
		if err != nil {
			return "", err
		}
		// Lost races are fine, the first writer wins and Incr below
		// continues from whatever value won.
		if _, err := s.redis.SetNX(key, []byte(strconv.FormatInt(max, 10)), seqKeyTTL); err != nil {
			return "", err
		}
	}

	seq, err := s.redis.Incr(key)
	if err != nil {
		return "", err
	}
	if err := s.redis.Expire(key, seqKeyTTL); err != nil {
		return "", err
	}

	return Format(day, seq), nil
}

// StoreSequencer is the degraded-mode allocator used when redis is not
// configured. It scans storage for the highest issued number, so it is only
// safe combined with the unique-index retry in the transaction service.
type StoreSequencer struct {
	store MaxSuffixStore
}

func NewStoreSequencer(store MaxSuffixStore) *StoreSequencer {
	return &StoreSequencer{store: store}
}

func (s *StoreSequencer) Next(ctx context.Context, day time.Time) (string, error) {
	max, err := s.store.MaxInvoiceSuffix(ctx, DatePrefix(day))
	if err != nil {
		return "", err
	}
	return Format(day, max+1), nil
}
