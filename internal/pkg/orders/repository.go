package orders

import (
	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the order payment ledger. The
// ForUpdate order read plus SumPayments inside one Transaction is what makes
// the remaining-balance check safe under concurrent submissions.
type Repository interface {
	Transaction(fn func(Repository) error) error

	GetOrder(orderID uint) (*models.Order, error)
	GetOrderForUpdate(orderID uint) (*models.Order, error)
	SaveOrder(order *models.Order) error

	SumPayments(orderID uint) (decimal.Decimal, error)
	CreatePayment(p *models.OrderPayment) error
	ListPayments(orderID uint) ([]models.OrderPayment, error)

	ReplaceItems(orderID uint, items []models.OrderItem, extras []models.OrderExtra) error
	ListItems(orderID uint) ([]models.OrderItem, []models.OrderExtra, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an order ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetOrder(orderID uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) GetOrderForUpdate(orderID uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, orderID).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) SaveOrder(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *gormRepository) SumPayments(orderID uint) (decimal.Decimal, error) {
	var raw *string
	err := r.db.Model(&models.OrderPayment{}).
		Where("order_id = ?", orderID).
		Select("CAST(COALESCE(SUM(amount), 0) AS CHAR)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *gormRepository) CreatePayment(p *models.OrderPayment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) ListPayments(orderID uint) ([]models.OrderPayment, error) {
	var payments []models.OrderPayment
	err := r.db.Where("order_id = ?", orderID).Order("paid_at ASC").Find(&payments).Error
	return payments, err
}

func (r *gormRepository) ReplaceItems(orderID uint, items []models.OrderItem, extras []models.OrderExtra) error {
	if err := r.db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("order_id = ?", orderID).Delete(&models.OrderExtra{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}
	for i := range extras {
		extras[i].ID = 0
		extras[i].OrderID = orderID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	if len(extras) > 0 {
		if err := r.db.Create(&extras).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *gormRepository) ListItems(orderID uint) ([]models.OrderItem, []models.OrderExtra, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	var extras []models.OrderExtra
	if err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&extras).Error; err != nil {
		return nil, nil, err
	}
	return items, extras, nil
}
