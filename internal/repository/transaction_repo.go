package repository

import (
	"context"
	"time"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Create(ctx context.Context, transaction *model.StockTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	FindAll(ctx context.Context, limit int) ([]model.StockTransaction, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockTransaction, error)
	Recent(ctx context.Context, limit int) ([]model.StockTransaction, error)
	RecentForProducts(ctx context.Context, productIDs []uuid.UUID, limit int) ([]model.StockTransaction, error)
	TopSelling(ctx context.Context, since time.Time, limit int) ([]ProductQuantity, error)
	FindSince(ctx context.Context, since time.Time) ([]model.StockTransaction, error)
	Balances(ctx context.Context) (map[uuid.UUID]int64, error)
	Balance(ctx context.Context, productID uuid.UUID) (int64, error)
}

// ProductQuantity is a per-product quantity total from a grouped query.
type ProductQuantity struct {
	ProductID     uuid.UUID `json:"product_id"`
	TotalQuantity int64     `json:"total_quantity"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// newestFirst orders journal entries by creation time, breaking ties by insertion order.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("stock_transactions.created_at DESC, stock_transactions.id DESC")
}

// signedQuantity is the SQL form of StockTransaction.SignedQuantity.
const signedQuantity = "SUM(CASE WHEN transaction_type = ? THEN quantity ELSE -quantity END)"

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) Create(ctx context.Context, transaction *model.StockTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	var transaction model.StockTransaction
	if err := r.db.WithContext(ctx).Preload("Product").First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindAll returns the newest limit entries; limit <= 0 returns the whole journal.
func (r *transactionRepo) FindAll(ctx context.Context, limit int) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	q := r.db.WithContext(ctx).Preload("Product").Scopes(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).Scopes(newestFirst).
		Where("product_id = ?", productID).
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) Recent(ctx context.Context, limit int) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).Preload("Product").Scopes(newestFirst).
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) RecentForProducts(ctx context.Context, productIDs []uuid.UUID, limit int) ([]model.StockTransaction, error) {
	if len(productIDs) == 0 {
		return []model.StockTransaction{}, nil
	}
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).Preload("Product").Scopes(newestFirst).
		Where("product_id IN ?", productIDs).
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// TopSelling sums OUT quantities per product since the given instant, largest first.
// Equal totals are ordered by product id so the result is stable.
func (r *transactionRepo) TopSelling(ctx context.Context, since time.Time, limit int) ([]ProductQuantity, error) {
	var rows []ProductQuantity
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Select("product_id, SUM(quantity) AS total_quantity").
		Where("transaction_type = ? AND created_at >= ?", model.TxOut, since).
		Group("product_id").
		Order("total_quantity DESC, product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *transactionRepo) FindSince(ctx context.Context, since time.Time) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC, id ASC").
		Find(&transactions).Error
	return transactions, err
}

// Balances replays the whole journal: product id -> signed quantity sum.
func (r *transactionRepo) Balances(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProductID uuid.UUID
		Balance   int64
	}
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Select("product_id, "+signedQuantity+" AS balance", model.TxIn).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	balances := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		balances[row.ProductID] = row.Balance
	}
	return balances, nil
}

func (r *transactionRepo) Balance(ctx context.Context, productID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Select("COALESCE("+signedQuantity+", 0)", model.TxIn).
		Where("product_id = ?", productID).
		Scan(&balance).Error
	return balance, err
}
