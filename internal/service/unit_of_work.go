package service

import (
	"context"
	"errors"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/metrics"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("go-inventory-ledger/service")

// UnitOfWork is one ledger transaction. Every product write and log append of an
// operation goes through Tx; hooks registered with AfterCommit only run once the
// transaction committed.
type UnitOfWork struct {
	Tx    *gorm.DB
	Actor model.Actor

	entries     []*model.InventoryLog
	afterCommit []func()
}

// AfterCommit registers fn to run after a successful commit
func (u *UnitOfWork) AfterCommit(fn func()) {
	u.afterCommit = append(u.afterCommit, fn)
}

// Entries returns the log entries appended so far
func (u *UnitOfWork) Entries() []*model.InventoryLog {
	return u.entries
}

// TxRunner opens units of work against one database
type TxRunner struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewTxRunner(db *gorm.DB, timeout time.Duration) *TxRunner {
	return &TxRunner{db: db, timeout: timeout}
}

// Run executes fn in a single transaction. Any error, panic or context expiry rolls
// back everything fn wrote.
func (r *TxRunner) Run(ctx context.Context, actor model.Actor, fn func(uow *UnitOfWork) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	uow := &UnitOfWork{Actor: actor}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow.Tx = tx
		return fn(uow)
	})
	if err != nil {
		return translateError(err)
	}

	for _, e := range uow.entries {
		metrics.ObserveStockEntry(string(e.Action), e.Delta)
	}
	for _, fn := range uow.afterCommit {
		fn()
	}
	return nil
}

// translateError maps storage failures onto the API error taxonomy
func translateError(err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound("record", "").Wrap(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Conflict("record already exists").Wrap(err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return apperror.Unprocessable("stock cannot become negative").Wrap(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperror.Timeout("operation aborted before commit, nothing was changed").Wrap(err)
	}
	return apperror.Internal(err)
}
