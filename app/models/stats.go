package models

import "time"

// Metric names flushed by the counter package.
const (
	MetricWebhooksProcessed = "webhooks_processed"
	MetricOrderPayments     = "order_payments"
	MetricUserPayments      = "user_payments"
)

// DailyStat is one per-day counter bucket, flushed periodically from Redis.
type DailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"type:varchar(10);not null;index:ux_daily_stats_date_metric,unique,priority:1" json:"date"`
	Metric    string    `gorm:"type:varchar(50);not null;index:ux_daily_stats_date_metric,unique,priority:2" json:"metric"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
