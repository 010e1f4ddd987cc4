package service

import (
	"context"
	"errors"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/logger"
	"go-inventory-ledger/pkg/metrics"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger bundles the collaborators the purchase and sale services share.
// Locker and Events are optional.
type Ledger struct {
	DB       *gorm.DB
	Products repository.ProductRepository
	Logs     repository.InventoryLogRepository
	Sequence SequenceAllocator
	Locker   *redislock.Client
	Events   ws.Publisher
	Config   config.LedgerConfig
	Now      func() time.Time
}

func (l Ledger) runner() *TxRunner {
	return NewTxRunner(l.DB, l.Config.TxTimeout)
}

func (l Ledger) stock() *stockLedger {
	return &stockLedger{products: l.Products, logs: l.Logs}
}

func (l Ledger) clock() func() time.Time {
	if l.Now != nil {
		return l.Now
	}
	return time.Now
}

func (l Ledger) publish(event ws.Event) {
	if l.Events != nil {
		l.Events.Publish(event)
	}
}

// withLock serialises work on one key across instances when Redis is configured
func (l Ledger) withLock(ctx context.Context, key, busy string, fn func() error) error {
	if l.Locker == nil {
		return fn()
	}
	ttl := l.Config.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	lock, err := l.Locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return apperror.Conflict(busy)
	}
	if err != nil {
		return apperror.Internal(err)
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.FromContext(ctx).Warn("release lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}

// observe records the outcome of a ledger operation and logs failures
func observe(ctx context.Context, operation string, actor model.Actor, err error, fields ...zap.Field) {
	if err == nil {
		metrics.ObserveOperation(operation, "ok")
		return
	}
	appErr := apperror.From(err)
	metrics.ObserveOperation(operation, appErr.Code)

	fields = append(fields,
		zap.String("operation", operation),
		zap.String("actor_id", actor.ID.String()),
		zap.String("code", appErr.Code),
		zap.Error(err),
	)
	log := logger.FromContext(ctx)
	if appErr.HTTPStatus >= 500 {
		log.Error("ledger operation failed", fields...)
		return
	}
	log.Warn("ledger operation rejected", fields...)
}

// productSnapshot is the per-product payload of change-feed events
func productSnapshot(products map[uuid.UUID]*model.Product) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		out = append(out, map[string]interface{}{
			"id":       p.ID,
			"sku":      p.SKU,
			"name":     p.Name,
			"stock":    p.Stock,
			"avg_cost": p.AvgCost,
		})
	}
	return out
}
