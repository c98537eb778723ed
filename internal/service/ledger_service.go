package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"stockledger/internal/event"
	"stockledger/internal/model"
	"stockledger/internal/repository"
	"stockledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var ledgerTracer = otel.Tracer("stockledger/ledger")

// MovementInput is a request to move stock in or out of one product.
type MovementInput struct {
	ProductID uuid.UUID             `json:"product_id" validate:"uuid_required"`
	Type      model.TransactionType `json:"transaction_type"`
	Quantity  int                   `json:"quantity"`
	UnitPrice decimal.NullDecimal   `json:"unit_price" validate:"omitempty,money"`
	Notes     string                `json:"notes" validate:"max=2000"`
}

// StockDiscrepancy is a product whose counter disagrees with its journal.
type StockDiscrepancy struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
	JournalTotal  int64     `json:"journal_total"`
}

type LedgerService interface {
	RecordMovement(ctx context.Context, in MovementInput, actor string) (*model.StockTransaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	ListTransactions(ctx context.Context, limit int) ([]model.StockTransaction, error)
	ProductHistory(ctx context.Context, productID uuid.UUID) ([]model.StockTransaction, error)
	ReplayStock(ctx context.Context, productID uuid.UUID) (int64, error)
	Audit(ctx context.Context) ([]StockDiscrepancy, error)
}

type ledgerService struct {
	db              *gorm.DB
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	deps
}

func NewLedgerService(db *gorm.DB, pRepo repository.ProductRepository, tRepo repository.TransactionRepository, opts ...Option) LedgerService {
	return &ledgerService{
		db:              db,
		productRepo:     pRepo,
		transactionRepo: tRepo,
		deps:            newDeps(opts),
	}
}

// RecordMovement adjusts the product's stock and appends the journal entry in one storage
// transaction. Either both are persisted or neither is.
func (s *ledgerService) RecordMovement(ctx context.Context, in MovementInput, actor string) (*model.StockTransaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "ledger.RecordMovement", trace.WithAttributes(
		attribute.String("product.id", in.ProductID.String()),
		attribute.String("transaction.type", string(in.Type)),
		attribute.Int("transaction.quantity", in.Quantity),
	))
	defer span.End()
	start := time.Now()

	entry, product, err := s.recordMovement(ctx, in, actor)
	if s.ledgerMetrics != nil {
		s.ledgerMetrics.Duration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.rejected(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Info(ctx).Err(err).
			Str("product_id", in.ProductID.String()).
			Str("type", string(in.Type)).
			Int("quantity", in.Quantity).
			Str("actor", actor).
			Msg("Stock movement rejected")
		return nil, err
	}

	if s.ledgerMetrics != nil {
		s.ledgerMetrics.Movements.WithLabelValues(string(entry.Type)).Inc()
		s.ledgerMetrics.Units.WithLabelValues(string(entry.Type)).Add(float64(entry.Quantity))
	}
	s.invalidateDashboard(ctx)

	ev := event.StockMovementEvent{
		TransactionID: entry.ID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		SKU:           product.SKU,
		Type:          string(entry.Type),
		Quantity:      entry.Quantity,
		NewStock:      product.StockQuantity,
		ReorderLevel:  product.ReorderLevel,
		Actor:         actor,
		Timestamp:     entry.CreatedAt,
	}
	if err := s.publisher.PublishStockMovement(ctx, ev); err != nil {
		logWarn(ctx, err, "Failed to publish stock movement")
	}

	logger.Info(ctx).
		Str("transaction_id", entry.ID.String()).
		Str("product_id", product.ID.String()).
		Str("type", string(entry.Type)).
		Int("quantity", entry.Quantity).
		Int("new_stock", product.StockQuantity).
		Str("actor", actor).
		Msg("Stock movement recorded")

	entry.Product = product
	return entry, nil
}

func (s *ledgerService) recordMovement(ctx context.Context, in MovementInput, actor string) (*model.StockTransaction, *model.Product, error) {
	if in.Quantity <= 0 {
		return nil, nil, ErrInvalidQuantity
	}
	if !in.Type.Valid() {
		return nil, nil, ErrInvalidTransactionType
	}
	if err := validate(&in); err != nil {
		return nil, nil, err
	}

	var (
		entry   *model.StockTransaction
		product *model.Product
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)

		p, err := products.FindActiveByID(ctx, in.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		delta := in.Type.Sign() * in.Quantity
		if delta > 0 && p.StockQuantity > math.MaxInt-delta {
			return ErrInvalidQuantity
		}
		if p.StockQuantity+delta < 0 {
			return ErrInsufficientStock
		}

		// A concurrent movement may have committed since the read above.
		ok, err := products.AdjustStock(ctx, p.ID, delta, actor)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}

		entry = &model.StockTransaction{
			ProductID: p.ID,
			Type:      in.Type,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Notes:     in.Notes,
			CreatedBy: actor,
			CreatedAt: s.now(),
		}
		if err := s.transactionRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to append stock transaction: %w", err)
		}

		stock, err := products.CurrentStock(ctx, p.ID)
		if err != nil {
			return err
		}
		p.StockQuantity = stock
		product = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, product, nil
}

func (s *ledgerService) rejected(err error) {
	if s.ledgerMetrics == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		reason = "invalid_quantity"
	case errors.Is(err, ErrInvalidTransactionType):
		reason = "invalid_type"
	case errors.Is(err, ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, ErrProductNotFound):
		reason = "product_not_found"
	case errors.Is(err, ErrValidation):
		reason = "validation"
	}
	s.ledgerMetrics.Rejected.WithLabelValues(reason).Inc()
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	t, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	return t, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, limit int) ([]model.StockTransaction, error) {
	return s.transactionRepo.FindAll(ctx, limit)
}

// ProductHistory is the journal of one active product, newest first.
func (s *ledgerService) ProductHistory(ctx context.Context, productID uuid.UUID) ([]model.StockTransaction, error) {
	if _, err := s.productRepo.FindActiveByID(ctx, productID); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return s.transactionRepo.FindByProduct(ctx, productID)
}

// ReplayStock rebuilds a product's stock from zero by summing its journal.
func (s *ledgerService) ReplayStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	return s.transactionRepo.Balance(ctx, productID)
}

// Audit compares every product's counter, active or not, with its journal replay.
func (s *ledgerService) Audit(ctx context.Context) ([]StockDiscrepancy, error) {
	ctx, span := ledgerTracer.Start(ctx, "ledger.Audit")
	defer span.End()

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.transactionRepo.Balances(ctx)
	if err != nil {
		return nil, err
	}

	discrepancies := []StockDiscrepancy{}
	for _, p := range products {
		if int64(p.StockQuantity) == balances[p.ID] {
			continue
		}
		discrepancies = append(discrepancies, StockDiscrepancy{
			ProductID:     p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			JournalTotal:  balances[p.ID],
		})
	}
	span.SetAttributes(attribute.Int("audit.discrepancies", len(discrepancies)))
	return discrepancies, nil
}
