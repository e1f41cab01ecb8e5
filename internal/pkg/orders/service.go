package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totals is the recomputed balance view of an order. It is always derived
// from the full payment set, never accumulated incrementally.
type Totals struct {
	NetTotal  decimal.Decimal `json:"net_total"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// AddPaymentInput is the input for recording one payment against an order.
type AddPaymentInput struct {
	OrderID   uint
	Amount    decimal.Decimal
	Method    string
	Note      string
	PaidAt    *time.Time
	CreatedBy uint
}

// Service is the order payment ledger: it records immutable payments against
// orders and enforces that the payment sum never exceeds the order net total.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an order ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates an order ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// AddPayment records one payment. The order row is locked, the balance check
// and the insert run in the same transaction, and the returned totals are
// recomputed from the full payment set.
func (s *Service) AddPayment(ctx context.Context, in AddPaymentInput) (*Totals, error) {
	_ = ctx
	if in.OrderID == 0 {
		return nil, apperr.Validation("missing_order_id", "order_id is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("invalid_amount", "amount must be positive")
	}
	if !models.IsValidPaymentMethod(in.Method) {
		return nil, apperr.Validation("invalid_method", fmt.Sprintf("unknown payment method %q", in.Method))
	}

	paidAt := s.now()
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}

	var out Totals
	err := s.repo.Transaction(func(r Repository) error {
		order, err := r.GetOrderForUpdate(in.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order_not_found", fmt.Sprintf("order %d does not exist", in.OrderID))
			}
			return err
		}

		paidSoFar, err := r.SumPayments(in.OrderID)
		if err != nil {
			return err
		}
		remaining := order.NetTotal.Sub(paidSoFar)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		if in.Amount.GreaterThan(remaining) {
			return apperr.Balance("amount_exceeds_remaining",
				fmt.Sprintf("payment %s exceeds remaining balance %s", in.Amount, remaining))
		}

		payment := &models.OrderPayment{
			OrderID:   in.OrderID,
			Amount:    in.Amount.Round(2),
			Method:    in.Method,
			Note:      in.Note,
			PaidAt:    paidAt,
			CreatedBy: in.CreatedBy,
		}
		if err := r.CreatePayment(payment); err != nil {
			return err
		}

		totalPaid, err := r.SumPayments(in.OrderID)
		if err != nil {
			return err
		}
		out = buildTotals(order.NetTotal, totalPaid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPayments returns the order's payments ordered by paid_at ascending,
// together with the recomputed totals.
func (s *Service) ListPayments(ctx context.Context, orderID uint) ([]models.OrderPayment, *Totals, error) {
	_ = ctx
	if orderID == 0 {
		return nil, nil, apperr.Validation("missing_order_id", "order_id is required")
	}

	order, err := s.repo.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("order_not_found", fmt.Sprintf("order %d does not exist", orderID))
		}
		return nil, nil, err
	}

	payments, err := s.repo.ListPayments(orderID)
	if err != nil {
		return nil, nil, err
	}
	totalPaid, err := s.repo.SumPayments(orderID)
	if err != nil {
		return nil, nil, err
	}
	totals := buildTotals(order.NetTotal, totalPaid)
	return payments, &totals, nil
}

// GetOrder loads an order together with its item and extra lines and the
// recomputed payment totals.
func (s *Service) GetOrder(ctx context.Context, orderID uint) (*models.Order, *Totals, error) {
	_ = ctx
	if orderID == 0 {
		return nil, nil, apperr.Validation("missing_order_id", "order_id is required")
	}

	order, err := s.repo.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("order_not_found", fmt.Sprintf("order %d does not exist", orderID))
		}
		return nil, nil, err
	}

	items, extras, err := s.repo.ListItems(orderID)
	if err != nil {
		return nil, nil, err
	}
	order.Items = items
	order.Extras = extras

	totalPaid, err := s.repo.SumPayments(orderID)
	if err != nil {
		return nil, nil, err
	}
	totals := buildTotals(order.NetTotal, totalPaid)
	return order, &totals, nil
}

// ReplaceItems swaps the order's item and extra lines and recomputes the net
// total transactionally from the new source rows. Line subtotals are always
// recomputed server-side; client-supplied subtotals are discarded.
func (s *Service) ReplaceItems(ctx context.Context, orderID uint, items []models.OrderItem, extras []models.OrderExtra) (*models.Order, error) {
	_ = ctx
	if orderID == 0 {
		return nil, apperr.Validation("missing_order_id", "order_id is required")
	}
	for i := range items {
		if items[i].Qty < 1 {
			return nil, apperr.Validation("invalid_qty", "item qty must be at least 1")
		}
		if items[i].WidthCM < 1 {
			return nil, apperr.Validation("invalid_width", "item width must be at least 1 cm")
		}
		if items[i].UnitPrice.IsNegative() || items[i].FileDensity.IsNegative() {
			return nil, apperr.Validation("invalid_price", "unit price and file density must not be negative")
		}
	}

	var out *models.Order
	err := s.repo.Transaction(func(r Repository) error {
		order, err := r.GetOrderForUpdate(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order_not_found", fmt.Sprintf("order %d does not exist", orderID))
			}
			return err
		}

		for i := range items {
			if items[i].FileDensity.IsZero() {
				items[i].FileDensity = decimal.NewFromInt(1)
			}
			items[i].Subtotal = items[i].ComputeSubtotal()
		}
		for i := range extras {
			extras[i].Subtotal = extras[i].Subtotal.Round(2)
		}

		net := decimal.Zero
		for i := range items {
			net = net.Add(items[i].Subtotal)
		}
		for i := range extras {
			net = net.Add(extras[i].Subtotal)
		}

		// The payment sum must never exceed the net total. A replacement that
		// drops the total below what is already paid would strand paid money;
		// it needs reversal entries first.
		paid, err := r.SumPayments(orderID)
		if err != nil {
			return err
		}
		if net.LessThan(paid) {
			return apperr.Balance("net_below_paid",
				fmt.Sprintf("replacement net total %s is below the already paid %s", net, paid))
		}

		if err := r.ReplaceItems(orderID, items, extras); err != nil {
			return err
		}
		order.NetTotal = net
		if err := r.SaveOrder(order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func buildTotals(netTotal, totalPaid decimal.Decimal) Totals {
	remaining := netTotal.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Totals{NetTotal: netTotal, TotalPaid: totalPaid, Remaining: remaining}
}
