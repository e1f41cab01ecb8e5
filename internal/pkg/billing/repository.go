package billing

import (
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service. Transaction
// yields a repository bound to the transaction; ForUpdate reads inside it take
// row locks so concurrent ledger writes against one tenant serialize.
type Repository interface {
	Transaction(fn func(Repository) error) error

	TenantExists(tenantID uint) (bool, error)
	GetTenantByProviderRef(provider, customerRef string) (*models.Tenant, error)

	GetSubscription(tenantID uint) (*models.Subscription, error)
	GetSubscriptionForUpdate(tenantID uint) (*models.Subscription, error)
	CreateSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	ListSweepCandidates(now time.Time, limit int) ([]models.Subscription, error)

	HasPaidInvoiceInRange(tenantID uint, start, end time.Time) (bool, error)
	CreateInvoice(inv *models.Invoice) error
	ListInvoices(tenantID uint, limit int) ([]models.Invoice, error)

	FindActivePlanMapping(provider, priceRef string) (*models.PlanMapping, error)

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) TenantExists(tenantID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Where("id = ?", tenantID).Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) GetTenantByProviderRef(provider, customerRef string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.Where("provider_customer_ref = ?", customerRef).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) GetSubscription(tenantID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("tenant_id = ?", tenantID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionForUpdate(tenantID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) ListSweepCandidates(now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("(status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?)", models.SubscriptionStatusTrialing, now).
		Or("(status = ? AND cancel_at_period_end = ? AND current_period_end IS NOT NULL AND current_period_end < ?)", models.SubscriptionStatusActive, true, now).
		Or("(status = ? AND grace_until IS NOT NULL AND grace_until < ?)", models.SubscriptionStatusPastDue, now).
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) HasPaidInvoiceInRange(tenantID uint, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).
		Where("tenant_id = ? AND status = ? AND due_at >= ? AND due_at <= ?",
			tenantID, models.InvoiceStatusPaid, start, end).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) CreateInvoice(inv *models.Invoice) error {
	return r.db.Create(inv).Error
}

func (r *gormRepository) ListInvoices(tenantID uint, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	q := r.db.Where("tenant_id = ?", tenantID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&invoices).Error
	return invoices, err
}

func (r *gormRepository) FindActivePlanMapping(provider, priceRef string) (*models.PlanMapping, error) {
	var m models.PlanMapping
	err := r.db.
		Where("provider = ? AND provider_price_ref = ? AND is_active = ?", provider, priceRef, true).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
