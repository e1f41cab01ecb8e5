package counter

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/cache"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	webhooksKey      = "billing:counters:webhooks"
	orderPaymentsKey = "billing:counters:order_payments"
	userPaymentsKey  = "billing:counters:user_payments"
)

// AddWebhookProcessed increments the pending webhook counter for today in Redis.
func AddWebhookProcessed() error {
	return incrToday(webhooksKey)
}

// AddOrderPayment increments the pending order payment counter for today in Redis.
func AddOrderPayment() error {
	return incrToday(orderPaymentsKey)
}

// AddUserPayment increments the pending user payment counter for today in Redis.
func AddUserPayment() error {
	return incrToday(userPaymentsKey)
}

func incrToday(key string) error {
	ctx := context.Background()
	field := time.Now().UTC().Format("2006-01-02")
	return cache.GetClient().HIncrBy(ctx, key, field, 1).Err()
}

// FlushAll flushes all pending billing counters into the daily_stats table.
func FlushAll() error {
	if err := flushHashToStats(webhooksKey, models.MetricWebhooksProcessed); err != nil {
		return err
	}
	if err := flushHashToStats(orderPaymentsKey, models.MetricOrderPayments); err != nil {
		return err
	}
	return flushHashToStats(userPaymentsKey, models.MetricUserPayments)
}

// flushHashToStats drains a Redis hash atomically and applies batched
// increments to daily_stats. Uses RENAME to a temporary key for atomic drain
// without losing in-flight increments.
func flushHashToStats(redisKey, metric string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := redisKey + ":tmp:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}

	entries, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	defer rdb.Del(ctx, tmpKey)

	db := database.GetDB()
	for date, raw := range entries {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || count == 0 {
			continue
		}
		stat := &models.DailyStat{Date: date, Metric: metric, Count: count}
		err = db.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "date"},
				{Name: "metric"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count": gorm.Expr("count + ?", count),
			}),
		}).Create(stat).Error
		if err != nil {
			log.Printf("counter: flush of %s/%s failed: %v", metric, date, err)
		}
	}
	return nil
}
