package repository

import (
	"github.com/atolyesoft/DrapeDesk/app/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	Create(tenant *models.Tenant) error
	GetByID(id uint) (*models.Tenant, error)
	GetBySlug(slug string) (*models.Tenant, error)
	Update(tenant *models.Tenant) error
	List(offset, limit int) ([]models.Tenant, error)
	Count() (int64, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByUUID(uuid string) (*models.Order, error)
	GetByTenantID(tenantID uint, offset, limit int) ([]models.Order, error)
	Update(order *models.Order) error
	CountByTenantID(tenantID uint) (int64, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Tenant TenantRepository
	User   UserRepository
	Order  OrderRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant: NewTenantRepository(db),
		User:   NewUserRepository(db),
		Order:  NewOrderRepository(db),
	}
}
