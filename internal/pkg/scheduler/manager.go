package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/atolyesoft/DrapeDesk/internal/pkg/billing"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/database"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/env"
	metrics "github.com/atolyesoft/DrapeDesk/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2/log"
)

const sweepBatchSize = 500

// Manager runs the periodic billing background tasks: the subscription period
// sweep (elapsed trials, pending cancellations, expired grace windows) and
// the counter flush from Redis to the database.
type Manager struct {
	sweepTicker        *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global scheduler (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// Start starts the background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Scheduler] Starting billing background tasks")

	sweepInterval := time.Duration(env.GetEnvInt("BILLING_SWEEP_INTERVAL_MINUTES", 15)) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = 15 * time.Minute
	}

	m.sweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.sweepWorker()

	// Counter flush worker (Redis -> DB) every 5 minutes
	m.counterFlushTicker = time.NewTicker(5 * time.Minute)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[Scheduler] Started successfully")
}

// Stop stops the background tasks and waits for in-flight runs to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping billing background tasks")
	close(m.stopCh)

	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	m.wg.Wait()
	m.running = false
	log.Info("[Scheduler] Stopped")
}

func (m *Manager) sweepWorker() {
	defer m.wg.Done()

	// Run one sweep at startup so restarts do not extend cancellation lag.
	m.runSweepOnce()

	for {
		select {
		case <-m.stopCh:
			return
		case <-m.sweepTicker.C:
			m.runSweepOnce()
		}
	}
}

func (m *Manager) runSweepOnce() {
	svc := billing.NewServiceFromDB(database.GetDB())
	swept, err := svc.RunPeriodSweep(context.Background(), sweepBatchSize)
	if err != nil {
		log.Errorf("[Scheduler] Period sweep failed: %v", err)
		return
	}
	if swept > 0 {
		log.Infof("[Scheduler] Period sweep transitioned %d subscriptions", swept)
	}
}

func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			// Final flush so pending counters are not lost on shutdown.
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Scheduler] Final counter flush failed: %v", err)
			}
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Scheduler] Counter flush failed: %v", err)
			}
		}
	}
}
