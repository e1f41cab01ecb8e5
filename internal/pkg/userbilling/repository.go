package userbilling

import (
	"github.com/atolyesoft/DrapeDesk/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations for the per-user monthly payment track.
type Repository interface {
	GetUser(userID uint) (*models.User, error)
	CreatePaymentIfNotExists(p *models.Payment) (bool, error)
	ListPayments(userID uint) ([]models.Payment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a user billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(userID uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreatePaymentIfNotExists inserts the payment unless a row for the same
// (user_id, month_key) already exists. Returns whether a row was created.
func (r *gormRepository) CreatePaymentIfNotExists(p *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "month_key"},
		},
		DoNothing: true,
	}).Create(p)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) ListPayments(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).Order("month_key DESC").Find(&payments).Error
	return payments, err
}
