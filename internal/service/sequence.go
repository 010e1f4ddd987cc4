package service

import (
	"context"
	"fmt"
	"time"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds the skip-if-taken walk of the number allocator
const maxNumberAttempts = 100

// SequenceAllocator hands out the next value of a per-day counter
type SequenceAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, scope string) (int, error)
}

type dbSequence struct {
	repo repository.SequenceRepository
}

// NewDBSequence keeps counters in document_sequences, inside the caller's transaction.
// A rolled back operation also rolls back its number.
func NewDBSequence(repo repository.SequenceRepository) SequenceAllocator {
	return &dbSequence{repo: repo}
}

func (s *dbSequence) Next(ctx context.Context, tx *gorm.DB, scope string) (int, error) {
	return s.repo.Next(tx, scope)
}

type redisSequence struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSequence keeps counters as Redis keys shared by every instance. Numbers
// taken by rolled back operations are not reused.
func NewRedisSequence(client *redis.Client) SequenceAllocator {
	return &redisSequence{client: client, ttl: 48 * time.Hour}
}

func (s *redisSequence) Next(ctx context.Context, _ *gorm.DB, scope string) (int, error) {
	key := "docseq:" + scope
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			logger.FromContext(ctx).Warn("expire sequence key", zap.String("key", key), zap.Error(err))
		}
	}
	return int(n), nil
}

// numberer allocates PREFIX-YYYYMMDD-NNNN numbers for one document type
type numberer struct {
	prefix string
	seq    SequenceAllocator
	loc    *time.Location
	now    func() time.Time
	exists func(tx *gorm.DB, number string) (bool, error)
}

// next returns the first free number of today's sequence. Numbers that already exist
// (a counter reset, a manual import) are skipped.
func (n *numberer) next(ctx context.Context, tx *gorm.DB) (string, error) {
	day := n.now().In(n.loc)
	scope := ledger.SequenceScope(n.prefix, day)

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		seq, err := n.seq.Next(ctx, tx, scope)
		if err != nil {
			return "", err
		}
		number := ledger.DocumentNumber(n.prefix, day, seq)
		taken, err := n.exists(tx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", apperror.Conflict("could not allocate a document number for " + scope)
}
