package service

import (
	"context"
	"testing"
	"time"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/testdb"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events []ws.Event
}

func (r *recordingPublisher) Publish(e ws.Event) {
	r.events = append(r.events, e)
}

type LedgerSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	now       time.Time
	events    *recordingPublisher
	productDB repository.ProductRepository
	purchases PurchaseService
	sales     SaleService
	logs      InventoryLogService
	admin     model.Actor
	staff     model.Actor
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func ledgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		TimeZone:             "Asia/Jakarta",
		SaleNumberPrefix:     "SL",
		PurchaseNumberPrefix: "PO",
		TxTimeout:            5 * time.Second,
		LockTTL:              time.Second,
		LowStockThreshold:    10,
	}
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testdb.Open(s.T())
	s.now = time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	s.events = &recordingPublisher{}
	s.admin = model.Actor{ID: uuid.New(), Name: "Admin", RoleCode: model.RoleAdmin}
	s.staff = model.Actor{ID: uuid.New(), Name: "Staff", RoleCode: model.RoleStaff}

	s.productDB = repository.NewProductRepo(s.db)
	logRepo := repository.NewInventoryLogRepo(s.db)
	l := Ledger{
		DB:       s.db,
		Products: s.productDB,
		Logs:     logRepo,
		Sequence: NewDBSequence(repository.NewSequenceRepo()),
		Events:   s.events,
		Config:   ledgerConfig(),
		Now:      func() time.Time { return s.now },
	}
	s.purchases = NewPurchaseService(l, repository.NewPurchaseRepo(s.db), repository.NewSupplierRepo(s.db))
	s.sales = NewSaleService(l, repository.NewSaleRepo(s.db))
	s.logs = NewInventoryLogService(logRepo, s.productDB)
}

func line(p *model.Product, qty int, cost string) PurchaseItemRequest {
	return PurchaseItemRequest{ProductID: p.ID, Quantity: qty, UnitCost: decimal.RequireFromString(cost)}
}

func sold(p *model.Product, qty int) SaleItemRequest {
	return SaleItemRequest{ProductID: p.ID, Quantity: qty}
}

func (s *LedgerSuite) draft(supplier *uuid.UUID, items ...PurchaseItemRequest) *model.Purchase {
	purchase, err := s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{SupplierID: supplier, Items: items})
	s.Require().NoError(err)
	return purchase
}

// receive drafts and posts a single-line purchase
func (s *LedgerSuite) receive(p *model.Product, qty int, cost string) *model.Purchase {
	purchase := s.draft(nil, line(p, qty, cost))
	posted, err := s.purchases.Post(s.ctx, s.staff, purchase.ID)
	s.Require().NoError(err)
	return posted
}

func (s *LedgerSuite) sell(items ...SaleItemRequest) *model.Sale {
	sale, err := s.sales.Create(s.ctx, s.staff, &SaleRequest{Items: items})
	s.Require().NoError(err)
	return sale
}

func (s *LedgerSuite) reload(p *model.Product) *model.Product {
	return testdb.Reload(s.T(), s.db, p)
}

// entries returns log entries matching the condition in write order
func (s *LedgerSuite) entries(query string, args ...interface{}) []model.InventoryLog {
	var out []model.InventoryLog
	s.Require().NoError(s.db.Where(query, args...).Order("id ASC").Find(&out).Error)
	return out
}

func (s *LedgerSuite) assertCode(err error, code string) {
	s.Require().Error(err)
	s.Equal(code, apperror.From(err).Code, err.Error())
}

func (s *LedgerSuite) TestPostReceivesStockAndLogsOnce() {
	p := testdb.Product(s.T(), s.db, "A-1")

	draft := s.draft(nil, line(p, 10, "5.00"))
	s.Equal(ledger.PurchaseDraft, draft.Status)
	s.Equal("PO-20261018-0001", draft.Number)
	s.Equal(0, s.reload(p).Stock)
	s.Empty(s.entries("product_id = ?", p.ID))

	posted, err := s.purchases.Post(s.ctx, s.staff, draft.ID)
	s.Require().NoError(err)
	s.Equal(ledger.PurchasePosted, posted.Status)
	s.Equal(s.staff.AuditName(), posted.PostedBy)
	s.Require().NotNil(posted.PostedAt)

	fresh := s.reload(p)
	s.Equal(10, fresh.Stock)
	s.True(fresh.AvgCost.Equal(decimal.RequireFromString("5")))
	s.True(fresh.LastCost.Equal(decimal.RequireFromString("5")))

	logs := s.entries("product_id = ?", p.ID)
	s.Require().Len(logs, 1)
	s.Equal(ledger.ActionPurchasePost, logs[0].Action)
	s.Equal(10, logs[0].Delta)
	s.Equal(0, logs[0].BeforeQty)
	s.Equal(10, logs[0].AfterQty)
	s.Equal(s.staff.ID, logs[0].ActorID)
	s.Require().NotNil(logs[0].PurchaseID)
	s.Equal(draft.ID, *logs[0].PurchaseID)

	s.Require().NotEmpty(s.events.events)
	s.Equal(string(ledger.ActionPurchasePost), s.events.events[len(s.events.events)-1].Action)
}

func (s *LedgerSuite) TestPostTwiceIsRejected() {
	p := testdb.Product(s.T(), s.db, "A-1")
	posted := s.receive(p, 10, "5")

	_, err := s.purchases.Post(s.ctx, s.staff, posted.ID)
	s.assertCode(err, apperror.CodeConflict)
	s.Equal(10, s.reload(p).Stock)
	s.Len(s.entries("product_id = ?", p.ID), 1)
}

func (s *LedgerSuite) TestPostUnknownPurchase() {
	_, err := s.purchases.Post(s.ctx, s.staff, uuid.New())
	s.assertCode(err, apperror.CodeNotFound)
}

func (s *LedgerSuite) TestWeightedAverageAcrossLines() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "5")
	s.receive(p, 10, "7")
	s.True(s.reload(p).AvgCost.Equal(decimal.RequireFromString("6")))

	q := testdb.Product(s.T(), s.db, "B-1")
	purchase := s.draft(nil, line(q, 1, "4"), line(q, 1, "8"))
	_, err := s.purchases.Post(s.ctx, s.staff, purchase.ID)
	s.Require().NoError(err)

	fresh := s.reload(q)
	s.Equal(2, fresh.Stock)
	s.True(fresh.AvgCost.Equal(decimal.RequireFromString("6")))
	s.True(fresh.LastCost.Equal(decimal.RequireFromString("8")))

	logs := s.entries("product_id = ?", q.ID)
	s.Require().Len(logs, 2)
	s.Equal([]int{0, 1}, []int{logs[0].BeforeQty, logs[1].BeforeQty})
	s.Equal([]int{1, 2}, []int{logs[0].AfterQty, logs[1].AfterQty})
}

func (s *LedgerSuite) TestDraftBindsUnboundProduct() {
	p := testdb.Product(s.T(), s.db, "A-1")
	x := testdb.Supplier(s.T(), s.db, "X")

	s.draft(&x.ID, line(p, 1, "1"))

	fresh := s.reload(p)
	s.Require().NotNil(fresh.SupplierID)
	s.Equal(x.ID, *fresh.SupplierID)

	// a purchase without a supplier neither binds nor conflicts
	s.draft(nil, line(p, 1, "1"))
}

func (s *LedgerSuite) TestSupplierMismatchRejected() {
	p := testdb.Product(s.T(), s.db, "A-1")
	x := testdb.Supplier(s.T(), s.db, "X")
	y := testdb.Supplier(s.T(), s.db, "Y")
	s.draft(&x.ID, line(p, 1, "1"))
	s.receive(p, 4, "2")

	_, err := s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{SupplierID: &y.ID, Items: []PurchaseItemRequest{line(p, 3, "1")}})
	s.assertCode(err, apperror.CodeUnprocessable)

	fresh := s.reload(p)
	s.Equal(4, fresh.Stock)
	s.Equal(x.ID, *fresh.SupplierID)
}

func (s *LedgerSuite) TestSupplierMismatchAtPostAfterReassignment() {
	p := testdb.Product(s.T(), s.db, "A-1")
	x := testdb.Supplier(s.T(), s.db, "X")
	y := testdb.Supplier(s.T(), s.db, "Y")
	purchase := s.draft(&x.ID, line(p, 2, "1"))

	// an administrator moved the product to another supplier after drafting
	s.Require().NoError(s.productDB.SetSupplier(s.ctx, p.ID, &y.ID, "admin"))

	_, err := s.purchases.Post(s.ctx, s.staff, purchase.ID)
	s.assertCode(err, apperror.CodeUnprocessable)
	s.Equal(0, s.reload(p).Stock)
	s.Empty(s.entries("product_id = ?", p.ID))
}

func (s *LedgerSuite) TestUnknownSupplierOrProduct() {
	p := testdb.Product(s.T(), s.db, "A-1")
	missing := uuid.New()

	_, err := s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{SupplierID: &missing, Items: []PurchaseItemRequest{line(p, 1, "1")}})
	s.assertCode(err, apperror.CodeNotFound)

	_, err = s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{Items: []PurchaseItemRequest{{ProductID: missing, Quantity: 1}}})
	s.assertCode(err, apperror.CodeNotFound)
}

func (s *LedgerSuite) TestDraftValidation() {
	p := testdb.Product(s.T(), s.db, "A-1")

	_, err := s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{})
	s.assertCode(err, apperror.CodeValidation)

	_, err = s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{Items: []PurchaseItemRequest{line(p, 0, "1")}})
	s.assertCode(err, apperror.CodeValidation)

	_, err = s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{Items: []PurchaseItemRequest{line(p, 1, "-1")}})
	s.assertCode(err, apperror.CodeValidation)

	_, err = s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{
		Discount: decimal.RequireFromString("100"),
		Items:    []PurchaseItemRequest{line(p, 1, "1")},
	})
	s.assertCode(err, apperror.CodeValidation)
}

func (s *LedgerSuite) TestUpdateDraftReplacesItems() {
	p := testdb.Product(s.T(), s.db, "A-1")
	q := testdb.Product(s.T(), s.db, "B-1")
	purchase := s.draft(nil, line(p, 1, "1"))

	updated, err := s.purchases.UpdateDraft(s.ctx, s.staff, purchase.ID, &PurchaseRequest{
		Tax:   decimal.RequireFromString("1.5"),
		Items: []PurchaseItemRequest{line(q, 3, "2"), line(p, 2, "1")},
	})
	s.Require().NoError(err)
	s.Require().Len(updated.Items, 2)
	s.Equal(q.ID, updated.Items[0].ProductID)
	s.Equal(1, updated.Items[0].Line)
	s.True(updated.SubTotal.Equal(decimal.RequireFromString("8")))
	s.True(updated.GrandTotal.Equal(decimal.RequireFromString("9.5")))
	s.Equal(purchase.Number, updated.Number)
}

func (s *LedgerSuite) TestDraftOnlyEditsAndDeletes() {
	p := testdb.Product(s.T(), s.db, "A-1")
	posted := s.receive(p, 5, "1")

	_, err := s.purchases.UpdateDraft(s.ctx, s.staff, posted.ID, &PurchaseRequest{Items: []PurchaseItemRequest{line(p, 1, "1")}})
	s.assertCode(err, apperror.CodeConflict)

	err = s.purchases.DeleteDraft(s.ctx, s.staff, posted.ID)
	s.assertCode(err, apperror.CodeConflict)

	draft := s.draft(nil, line(p, 1, "1"))
	s.Require().NoError(s.purchases.DeleteDraft(s.ctx, s.staff, draft.ID))

	_, err = s.purchases.GetByID(s.ctx, draft.ID)
	s.assertCode(err, apperror.CodeNotFound)
	var items int64
	s.Require().NoError(s.db.Model(&model.PurchaseItem{}).Where("purchase_id = ?", draft.ID).Count(&items).Error)
	s.Zero(items)
	s.Equal(5, s.reload(p).Stock)
}

func (s *LedgerSuite) TestCancelVerifiesBeforeApplying() {
	p := testdb.Product(s.T(), s.db, "A-1")
	q := testdb.Product(s.T(), s.db, "B-1")
	purchase := s.draft(nil, line(q, 5, "1"), line(p, 10, "3"))
	_, err := s.purchases.Post(s.ctx, s.staff, purchase.ID)
	s.Require().NoError(err)
	s.sell(sold(p, 2))

	_, err = s.purchases.Cancel(s.ctx, s.admin, purchase.ID, "wrong delivery")
	s.assertCode(err, apperror.CodeUnprocessable)
	s.Equal(422, apperror.From(err).HTTPStatus)
	s.Equal("10", apperror.From(err).Details["requested"])
	s.Equal("8", apperror.From(err).Details["available"])

	s.Equal(8, s.reload(p).Stock)
	s.Equal(5, s.reload(q).Stock)
	s.Empty(s.entries("action = ?", ledger.ActionPurchaseCancel))

	current, err := s.purchases.GetByID(s.ctx, purchase.ID)
	s.Require().NoError(err)
	s.Equal(ledger.PurchasePosted, current.Status)
}

func (s *LedgerSuite) TestCancelAggregatesRepeatedProducts() {
	p := testdb.Product(s.T(), s.db, "A-1")
	purchase := s.draft(nil, line(p, 3, "1"), line(p, 3, "1"))
	_, err := s.purchases.Post(s.ctx, s.staff, purchase.ID)
	s.Require().NoError(err)
	s.sell(sold(p, 1))

	// 5 in stock covers each line alone but not both
	_, err = s.purchases.Cancel(s.ctx, s.admin, purchase.ID, "")
	s.assertCode(err, apperror.CodeUnprocessable)
	s.Equal("6", apperror.From(err).Details["requested"])
	s.Equal("5", apperror.From(err).Details["available"])
	s.Equal(5, s.reload(p).Stock)
}

func (s *LedgerSuite) TestCancelReversesStockAndKeepsAverageCost() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "4")
	purchase := s.receive(p, 10, "6")
	s.True(s.reload(p).AvgCost.Equal(decimal.RequireFromString("5")))

	cancelled, err := s.purchases.Cancel(s.ctx, s.admin, purchase.ID, "supplier recall")
	s.Require().NoError(err)
	s.Equal(ledger.PurchaseCancelled, cancelled.Status)
	s.Equal("supplier recall", cancelled.CancelReason)
	s.Equal(s.admin.AuditName(), cancelled.CancelledBy)
	s.Require().NotNil(cancelled.CancelledAt)

	fresh := s.reload(p)
	s.Equal(10, fresh.Stock)
	s.True(fresh.AvgCost.Equal(decimal.RequireFromString("5")))

	logs := s.entries("purchase_id = ? AND action = ?", purchase.ID, ledger.ActionPurchaseCancel)
	s.Require().Len(logs, 1)
	s.Equal(-10, logs[0].Delta)
	s.Equal(20, logs[0].BeforeQty)
	s.Equal(10, logs[0].AfterQty)
	s.Equal(s.admin.ID, logs[0].ActorID)

	_, err = s.purchases.Cancel(s.ctx, s.admin, purchase.ID, "")
	s.assertCode(err, apperror.CodeConflict)
}

func (s *LedgerSuite) TestCancelRequiresAdminAndPostedPurchase() {
	p := testdb.Product(s.T(), s.db, "A-1")
	posted := s.receive(p, 1, "1")

	_, err := s.purchases.Cancel(s.ctx, s.staff, posted.ID, "")
	s.assertCode(err, apperror.CodeForbidden)
	s.Equal(1, s.reload(p).Stock)

	draft := s.draft(nil, line(p, 1, "1"))
	_, err = s.purchases.Cancel(s.ctx, s.admin, draft.ID, "")
	s.assertCode(err, apperror.CodeConflict)
}

func (s *LedgerSuite) TestSaleInsufficientStockWritesNothing() {
	p := testdb.Product(s.T(), s.db, "A-1")
	q := testdb.Product(s.T(), s.db, "B-1")
	s.receive(p, 3, "1")
	s.receive(q, 3, "1")

	_, err := s.sales.Create(s.ctx, s.staff, &SaleRequest{Items: []SaleItemRequest{sold(p, 5)}})
	s.assertCode(err, apperror.CodeInsufficientStock)
	appErr := apperror.From(err)
	s.Equal("5", appErr.Details["requested"])
	s.Equal("3", appErr.Details["available"])
	s.Contains(appErr.Message, "A-1")

	// the first line succeeded before the second failed; both roll back
	_, err = s.sales.Create(s.ctx, s.staff, &SaleRequest{Items: []SaleItemRequest{sold(q, 2), sold(p, 4)}})
	s.assertCode(err, apperror.CodeInsufficientStock)

	s.Equal(3, s.reload(p).Stock)
	s.Equal(3, s.reload(q).Stock)
	s.Empty(s.entries("action = ?", ledger.ActionSaleCreate))

	var sales int64
	s.Require().NoError(s.db.Model(&model.Sale{}).Count(&sales).Error)
	s.Zero(sales)
}

func (s *LedgerSuite) TestSaleFreezesUnitPrice() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.Require().NoError(s.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("price", decimal.RequireFromString("12.5")).Error)
	s.receive(p, 10, "5")

	sale, err := s.sales.Create(s.ctx, s.staff, &SaleRequest{
		CustomerName: "Walk-in",
		Discount:     decimal.RequireFromString("10"),
		Items:        []SaleItemRequest{sold(p, 2)},
	})
	s.Require().NoError(err)
	s.Equal("SL-20261018-0001", sale.Number)
	s.True(sale.TotalAmount.Equal(decimal.RequireFromString("25")))
	s.True(sale.DiscountedAmount.Equal(decimal.RequireFromString("22.5")))
	s.Equal(8, s.reload(p).Stock)

	s.Require().NoError(s.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("price", decimal.RequireFromString("99")).Error)
	again, err := s.sales.GetByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.True(again.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.5")))
}

func (s *LedgerSuite) TestSaleUpdateRestoresThenApplies() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "1")
	sale := s.sell(sold(p, 2))
	s.Equal(8, s.reload(p).Stock)

	updated, err := s.sales.Update(s.ctx, s.staff, sale.ID, &SaleRequest{Items: []SaleItemRequest{sold(p, 5)}})
	s.Require().NoError(err)
	s.Require().Len(updated.Items, 1)
	s.Equal(5, updated.Items[0].Quantity)
	s.Equal(sale.Number, updated.Number)
	s.Equal(5, s.reload(p).Stock)

	logs := s.entries("sale_id = ?", sale.ID)
	s.Require().Len(logs, 3)
	s.Equal(ledger.ActionSaleCreate, logs[0].Action)
	s.Equal(ledger.ActionSaleUpdateRestore, logs[1].Action)
	s.Equal(2, logs[1].Delta)
	s.Equal(8, logs[1].BeforeQty)
	s.Equal(10, logs[1].AfterQty)
	s.Equal(ledger.ActionSaleUpdateApply, logs[2].Action)
	s.Equal(-5, logs[2].Delta)
	s.Equal(10, logs[2].BeforeQty)
	s.Equal(5, logs[2].AfterQty)
	for _, l := range logs {
		s.True(l.Consistent())
	}
}

func (s *LedgerSuite) TestSaleUpdateFailureRollsBackBothPhases() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "1")
	sale := s.sell(sold(p, 2))

	_, err := s.sales.Update(s.ctx, s.staff, sale.ID, &SaleRequest{Items: []SaleItemRequest{sold(p, 11)}})
	s.assertCode(err, apperror.CodeInsufficientStock)

	s.Equal(8, s.reload(p).Stock)
	s.Len(s.entries("sale_id = ?", sale.ID), 1)
	current, err := s.sales.GetByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.Equal(2, current.Items[0].Quantity)
}

func (s *LedgerSuite) TestSaleUpdateSwapsProducts() {
	p := testdb.Product(s.T(), s.db, "A-1")
	q := testdb.Product(s.T(), s.db, "B-1")
	s.receive(p, 5, "1")
	s.receive(q, 5, "1")
	sale := s.sell(sold(p, 3))

	_, err := s.sales.Update(s.ctx, s.staff, sale.ID, &SaleRequest{Items: []SaleItemRequest{sold(q, 4)}})
	s.Require().NoError(err)
	s.Equal(5, s.reload(p).Stock)
	s.Equal(1, s.reload(q).Stock)
}

func (s *LedgerSuite) TestSaleDeleteRestoresStock() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "1")
	sale := s.sell(sold(p, 4))

	s.Require().NoError(s.sales.Delete(s.ctx, s.staff, sale.ID))
	s.Equal(10, s.reload(p).Stock)

	_, err := s.sales.GetByID(s.ctx, sale.ID)
	s.assertCode(err, apperror.CodeNotFound)
	err = s.sales.Delete(s.ctx, s.staff, sale.ID)
	s.assertCode(err, apperror.CodeNotFound)

	logs := s.entries("sale_id = ? AND action = ?", sale.ID, ledger.ActionSaleDeleteRestore)
	s.Require().Len(logs, 1)
	s.Equal(4, logs[0].Delta)

	// items stay for the audit trail
	var items int64
	s.Require().NoError(s.db.Model(&model.SaleItem{}).Where("sale_id = ?", sale.ID).Count(&items).Error)
	s.EqualValues(1, items)
}

func (s *LedgerSuite) TestDeletedProducts() {
	p := testdb.Product(s.T(), s.db, "A-1")
	posted := s.receive(p, 10, "1")
	sale := s.sell(sold(p, 2))
	s.Require().NoError(s.productDB.SoftDelete(s.ctx, p.ID, "admin"))

	_, err := s.purchases.CreateDraft(s.ctx, s.staff, &PurchaseRequest{Items: []PurchaseItemRequest{line(p, 1, "1")}})
	s.assertCode(err, apperror.CodeConflict)
	_, err = s.sales.Create(s.ctx, s.staff, &SaleRequest{Items: []SaleItemRequest{sold(p, 1)}})
	s.assertCode(err, apperror.CodeConflict)

	// compensating actions still reach deleted products
	s.Require().NoError(s.sales.Delete(s.ctx, s.staff, sale.ID))
	_, err = s.purchases.Cancel(s.ctx, s.admin, posted.ID, "")
	s.Require().NoError(err)
	s.Equal(0, s.reload(p).Stock)
}

func (s *LedgerSuite) TestDocumentNumbersRunPerLocalDay() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "1")

	s.Equal("SL-20261018-0001", s.sell(sold(p, 1)).Number)
	s.Equal("SL-20261018-0002", s.sell(sold(p, 1)).Number)

	// 18:00 UTC is already the next day in Jakarta
	s.now = time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)
	s.Equal("SL-20261019-0001", s.sell(sold(p, 1)).Number)
}

func (s *LedgerSuite) TestDocumentNumberSkipsTakenNumbers() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "1")
	s.Require().NoError(s.db.Create(&model.Sale{Number: "SL-20261018-0001"}).Error)

	s.Equal("SL-20261018-0002", s.sell(sold(p, 1)).Number)
}

func (s *LedgerSuite) TestLogInvariantAndVerify() {
	p := testdb.Product(s.T(), s.db, "A-1")
	q := testdb.Product(s.T(), s.db, "B-1")
	testdb.Product(s.T(), s.db, "C-1")

	s.receive(p, 10, "2")
	purchase := s.receive(q, 6, "3")
	sale := s.sell(sold(p, 3), sold(q, 1))
	_, err := s.sales.Update(s.ctx, s.staff, sale.ID, &SaleRequest{Items: []SaleItemRequest{sold(p, 1), sold(q, 2)}})
	s.Require().NoError(err)
	_, err = s.sales.Create(s.ctx, s.staff, &SaleRequest{Items: []SaleItemRequest{sold(q, 50)}})
	s.Require().Error(err)
	s.Require().NoError(s.sales.Delete(s.ctx, s.staff, sale.ID))
	_, err = s.purchases.Cancel(s.ctx, s.admin, purchase.ID, "")
	s.Require().NoError(err)

	for _, l := range s.entries("1 = 1") {
		s.True(l.Consistent(), "entry %d", l.ID)
	}

	report, err := s.logs.Verify(s.ctx)
	s.Require().NoError(err)
	s.True(report.OK)
	s.Equal(3, report.CheckedProducts)

	s.Require().NoError(s.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("stock", 99).Error)
	report, err = s.logs.Verify(s.ctx)
	s.Require().NoError(err)
	s.False(report.OK)
	s.Require().Len(report.StockMismatches, 1)
	s.Equal(99, report.StockMismatches[0].Stock)
	s.Equal(10, report.StockMismatches[0].LoggedQty)
}

func (s *LedgerSuite) TestListLogsFilters() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 10, "1")
	s.sell(sold(p, 1))

	logs, total, err := s.logs.List(s.ctx, repository.LogFilter{ProductID: &p.ID})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Equal(ledger.ActionSaleCreate, logs[0].Action)

	_, _, err = s.logs.List(s.ctx, repository.LogFilter{Action: "stock.adjust"})
	s.assertCode(err, apperror.CodeValidation)
}

func (s *LedgerSuite) TestCommittedEntriesArePublishedAfterCommit() {
	p := testdb.Product(s.T(), s.db, "A-1")
	s.receive(p, 1, "1")
	before := len(s.events.events)

	_, err := s.sales.Create(s.ctx, s.staff, &SaleRequest{Items: []SaleItemRequest{sold(p, 2)}})
	s.Require().Error(err)
	s.Len(s.events.events, before)

	s.sell(sold(p, 1))
	s.Len(s.events.events, before+1)
	s.Equal(string(ledger.ActionSaleCreate), s.events.events[before].Action)
}
