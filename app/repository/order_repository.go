package repository

import (
	"github.com/atolyesoft/DrapeDesk/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order in the database
func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID retrieves an order by its ID including items and extras
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Extras").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByUUID retrieves an order by its public UUID
func (r *orderRepository) GetByUUID(uuid string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Extras").Where("uuid = ?", uuid).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByTenantID retrieves a tenant's orders with pagination
func (r *orderRepository) GetByTenantID(tenantID uint, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("tenant_id = ?", tenantID).Offset(offset).Limit(limit).
		Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Update updates an existing order
func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// CountByTenantID returns the number of orders belonging to a tenant
func (r *orderRepository) CountByTenantID(tenantID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}
