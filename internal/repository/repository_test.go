package repository_test

import (
	"context"
	"testing"
	"time"

	"stockledger/internal/dbtest"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var day0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, db *gorm.DB, sku string, stock, reorder int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          "Product " + sku,
		SKU:           sku,
		Price:         decimal.RequireFromString("2.50"),
		StockQuantity: stock,
		ReorderLevel:  reorder,
		Active:        true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedTx(t *testing.T, db *gorm.DB, productID uuid.UUID, typ model.TransactionType, qty int, at time.Time) *model.StockTransaction {
	t.Helper()
	tx := &model.StockTransaction{ProductID: productID, Type: typ, Quantity: qty, CreatedAt: at}
	require.NoError(t, db.Create(tx).Error)
	return tx
}

func TestAdjustStock_ConditionalUpdate(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewProductRepo(db)
	ctx := context.Background()
	p := seedProduct(t, db, "A", 5, 1)

	ok, err := repo.AdjustStock(ctx, p.ID, -5, "u")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AdjustStock(ctx, p.ID, -1, "u")
	require.NoError(t, err)
	assert.False(t, ok, "stock may not go below zero")

	ok, err = repo.AdjustStock(ctx, p.ID, 7, "u")
	require.NoError(t, err)
	assert.True(t, ok)

	stock, err := repo.CurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)

	require.NoError(t, repo.Deactivate(ctx, p.ID, "u"))
	ok, err = repo.AdjustStock(ctx, p.ID, 1, "u")
	require.NoError(t, err)
	assert.False(t, ok, "inactive products are frozen")

	ok, err = repo.AdjustStock(ctx, uuid.New(), 1, "u")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLowStockScope(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewProductRepo(db)
	ctx := context.Background()

	seedProduct(t, db, "AT-LEVEL", 10, 10)
	seedProduct(t, db, "ABOVE", 11, 10)
	seedProduct(t, db, "ZERO-ZERO", 0, 0)
	gone := seedProduct(t, db, "GONE", 0, 10)
	require.NoError(t, repo.Deactivate(ctx, gone.ID, "u"))

	low, err := repo.LowStock(ctx)
	require.NoError(t, err)

	got := make([]string, len(low))
	for i, p := range low {
		got[i] = p.SKU
		assert.True(t, p.IsLowStock(), p.SKU)
	}
	assert.ElementsMatch(t, []string{"AT-LEVEL", "ZERO-ZERO"}, got)
}

func TestFindByIDs_IncludesInactive(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewProductRepo(db)
	ctx := context.Background()
	a := seedProduct(t, db, "A", 1, 0)
	b := seedProduct(t, db, "B", 1, 0)
	require.NoError(t, repo.Deactivate(ctx, b.ID, "u"))

	found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = repo.FindActiveByID(ctx, b.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRollup_CountsActiveProductsOnly(t *testing.T) {
	db := dbtest.Open(t)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	ctx := context.Background()

	tools := &model.Category{Name: "Tools", Active: true}
	empty := &model.Category{Name: "Empty", Active: true}
	old := &model.Category{Name: "Old", Active: true}
	for _, c := range []*model.Category{tools, empty, old} {
		require.NoError(t, categories.Create(ctx, c))
	}
	require.NoError(t, categories.Deactivate(ctx, old.ID, "u"))

	for i, sku := range []string{"T1", "T2", "T3"} {
		p := seedProduct(t, db, sku, 1, 0)
		require.NoError(t, db.Model(p).Update("category_id", tools.ID).Error)
		if i == 2 {
			require.NoError(t, products.Deactivate(ctx, p.ID, "u"))
		}
	}

	rollup, err := categories.Rollup(ctx)
	require.NoError(t, err)
	require.Len(t, rollup, 2)
	assert.Equal(t, "Empty", rollup[0].Name)
	assert.Equal(t, int64(0), rollup[0].ProductCount)
	assert.Equal(t, "Tools", rollup[1].Name)
	assert.Equal(t, int64(2), rollup[1].ProductCount)
}

func TestTopSelling_WindowAndTies(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTransactionRepo(db)
	a := seedProduct(t, db, "A", 0, 0)
	b := seedProduct(t, db, "B", 0, 0)
	c := seedProduct(t, db, "C", 0, 0)

	seedTx(t, db, a.ID, model.TxOut, 4, day0)
	seedTx(t, db, a.ID, model.TxOut, 3, day0.Add(time.Hour))
	seedTx(t, db, b.ID, model.TxOut, 7, day0)
	seedTx(t, db, c.ID, model.TxIn, 100, day0)
	seedTx(t, db, c.ID, model.TxOut, 50, day0.Add(-time.Second))

	top, err := repo.TopSelling(context.Background(), day0, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)

	first, second := a.ID, b.ID
	if b.ID.String() < a.ID.String() {
		first, second = b.ID, a.ID
	}
	assert.Equal(t, first, top[0].ProductID)
	assert.Equal(t, second, top[1].ProductID)
	assert.Equal(t, int64(7), top[0].TotalQuantity)
	assert.Equal(t, int64(7), top[1].TotalQuantity)

	top, err = repo.TopSelling(context.Background(), day0, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestBalances(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTransactionRepo(db)
	ctx := context.Background()
	a := seedProduct(t, db, "A", 0, 0)
	b := seedProduct(t, db, "B", 0, 0)
	quiet := seedProduct(t, db, "Q", 0, 0)

	seedTx(t, db, a.ID, model.TxIn, 10, day0)
	seedTx(t, db, a.ID, model.TxOut, 4, day0)
	seedTx(t, db, a.ID, model.TxIn, 1, day0)
	seedTx(t, db, b.ID, model.TxIn, 2, day0)
	seedTx(t, db, b.ID, model.TxOut, 2, day0)

	balances, err := repo.Balances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{a.ID: 7, b.ID: 0}, balances)

	balance, err := repo.Balance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance)

	balance, err = repo.Balance(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestJournalOrdering(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTransactionRepo(db)
	ctx := context.Background()
	a := seedProduct(t, db, "A", 0, 0)
	b := seedProduct(t, db, "B", 0, 0)

	first := seedTx(t, db, a.ID, model.TxIn, 1, day0)
	second := seedTx(t, db, a.ID, model.TxIn, 2, day0)
	later := seedTx(t, db, b.ID, model.TxIn, 3, day0.Add(time.Minute))
	earlier := seedTx(t, db, b.ID, model.TxIn, 4, day0.Add(-time.Minute))

	all, err := repo.FindAll(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{later.ID, second.ID, first.ID, earlier.ID}, txIDs(all))
	require.NotNil(t, all[0].Product)
	assert.Equal(t, "B", all[0].Product.SKU)

	limited, err := repo.FindAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{later.ID, second.ID}, txIDs(limited))

	forA, err := repo.RecentForProducts(ctx, []uuid.UUID{a.ID}, 5)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, txIDs(forA))

	none, err := repo.RecentForProducts(ctx, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	since, err := repo.FindSince(ctx, day0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID, later.ID}, txIDs(since))
}

func TestJournalRejectsRewrites(t *testing.T) {
	db := dbtest.Open(t)
	p := seedProduct(t, db, "A", 0, 0)
	entry := seedTx(t, db, p.ID, model.TxIn, 1, day0)

	entry.Quantity = 99
	assert.ErrorIs(t, db.Save(entry).Error, model.ErrImmutableTransaction)
	assert.ErrorIs(t, db.Delete(entry).Error, model.ErrImmutableTransaction)

	var stored model.StockTransaction
	require.NoError(t, db.First(&stored, "id = ?", entry.ID).Error)
	assert.Equal(t, 1, stored.Quantity)
}

func TestSupplierList_Counts(t *testing.T) {
	db := dbtest.Open(t)
	suppliers := repository.NewSupplierRepo(db)
	ctx := context.Background()

	acme := &model.Supplier{Name: "Acme", Email: "sales@acme.test", Active: true}
	require.NoError(t, suppliers.Create(ctx, acme))
	p := seedProduct(t, db, "A", 1, 0)
	require.NoError(t, db.Model(p).Update("supplier_id", acme.ID).Error)

	list, err := suppliers.List(ctx, "ACME.test")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ProductCount)

	list, err = suppliers.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func txIDs(txs []model.StockTransaction) []uuid.UUID {
	ids := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}
