package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/testdb"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSequence(t *testing.T) {
	mr, client := newRedis(t)
	seq := NewRedisSequence(client)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := seq.Next(ctx, nil, "SL-20261018")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := seq.Next(ctx, nil, "PO-20261018")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	assert.True(t, mr.TTL("docseq:SL-20261018") > 0)
}

// failExpire rejects EXPIRE and lets every other command through
type failExpire struct{}

func (failExpire) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failExpire) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "expire" {
			err := errors.New("expire unavailable")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failExpire) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisSequenceLogsFailedExpire(t *testing.T) {
	mr, client := newRedis(t)
	client.AddHook(failExpire{})
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	got, err := NewRedisSequence(client).Next(ctx, nil, "SL-20261018")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, time.Duration(0), mr.TTL("docseq:SL-20261018"))

	entries := logs.FilterMessage("expire sequence key").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "docseq:SL-20261018", entries[0].ContextMap()["key"])
}

func TestNumbererSkipsTakenNumbers(t *testing.T) {
	_, client := newRedis(t)
	taken := map[string]bool{"SL-20261018-0001": true, "SL-20261018-0002": true}

	n := &numberer{
		prefix: "SL",
		seq:    NewRedisSequence(client),
		loc:    time.UTC,
		now:    func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) },
		exists: func(_ *gorm.DB, number string) (bool, error) { return taken[number], nil },
	}

	number, err := n.next(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "SL-20261018-0003", number)
}

func TestNumbererGivesUp(t *testing.T) {
	_, client := newRedis(t)
	n := &numberer{
		prefix: "PO",
		seq:    NewRedisSequence(client),
		loc:    time.UTC,
		now:    time.Now,
		exists: func(*gorm.DB, string) (bool, error) { return true, nil },
	}

	_, err := n.next(context.Background(), nil)
	assert.True(t, apperror.Is(err, apperror.CodeConflict))
}

func TestPostRejectedWhilePurchaseLocked(t *testing.T) {
	db := testdb.Open(t)
	_, client := newRedis(t)
	locker := redislock.New(client)
	ctx := context.Background()
	actor := model.Actor{ID: uuid.New(), Name: "Staff", RoleCode: model.RoleStaff}

	l := Ledger{
		DB:       db,
		Products: repository.NewProductRepo(db),
		Logs:     repository.NewInventoryLogRepo(db),
		Sequence: NewRedisSequence(client),
		Locker:   locker,
		Config:   ledgerConfig(),
	}
	purchases := NewPurchaseService(l, repository.NewPurchaseRepo(db), repository.NewSupplierRepo(db))

	p := testdb.Product(t, db, "A-1")
	draft, err := purchases.CreateDraft(ctx, actor, &PurchaseRequest{
		Items: []PurchaseItemRequest{{ProductID: p.ID, Quantity: 2, UnitCost: decimal.RequireFromString("1")}},
	})
	require.NoError(t, err)

	held, err := locker.Obtain(ctx, "purchase:"+draft.ID.String(), time.Minute, nil)
	require.NoError(t, err)

	_, err = purchases.Post(ctx, actor, draft.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.From(err).Code)
	assert.Equal(t, "purchase is being processed", apperror.From(err).Message)
	assert.Equal(t, 0, testdb.Reload(t, db, p).Stock)

	require.NoError(t, held.Release(ctx))
	posted, err := purchases.Post(ctx, actor, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "posted", string(posted.Status))
	assert.Equal(t, 2, testdb.Reload(t, db, p).Stock)
}
