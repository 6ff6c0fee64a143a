// Package journal persists emitted alerts and connection sessions.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"hazardcam/internal/config"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
	"hazardcam/internal/repository"
	"hazardcam/internal/service/hazard"
)

// ClientIDSource reports the id assigned by the detection service.
type ClientIDSource interface {
	ClientID() (string, bool)
}

// BufferService buffers alerts in memory and periodically flushes them to the database.
type BufferService struct {
	flushInterval time.Duration
	limit         int
	alerts        []model.Alert
	dropped       int
	mu            sync.Mutex
	clock         clock.Clock
	logger        *logger.Logger
	alertRepo     repository.AlertRepository
	identity      ClientIDSource
	flushNow      chan struct{}
}

// NewBufferService creates a new BufferService. A nil clock means the wall clock.
func NewBufferService(config *config.Config, logger *logger.Logger, alertRepo repository.AlertRepository, identity ClientIDSource, clk clock.Clock) *BufferService {
	if clk == nil {
		clk = clock.New()
	}
	limit := config.JournalBufferLimit
	if limit <= 0 {
		limit = 50
	}
	interval := config.JournalFlushInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &BufferService{
		flushInterval: interval,
		limit:         limit,
		alerts:        make([]model.Alert, 0, limit),
		clock:         clk,
		logger:        logger,
		alertRepo:     alertRepo,
		identity:      identity,
		flushNow:      make(chan struct{}, 1),
	}
}

// Run starts a ticker loop that periodically flushes alerts. Pending alerts
// are flushed once more when ctx is done.
func (s *BufferService) Run(ctx context.Context) error {
	ticker := s.clock.Ticker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushAlerts()
			return nil
		case <-ticker.C:
			s.FlushAlerts()
		case <-s.flushNow:
			s.FlushAlerts()
		}
	}
}

// Notify implements hazard.Notifier. A full buffer requests an early flush;
// alerts beyond twice the limit are dropped until the flush catches up.
func (s *BufferService) Notify(alert hazard.Alert) {
	clientID := ""
	if s.identity != nil {
		clientID, _ = s.identity.ClientID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.alerts) >= 2*s.limit {
		s.dropped++
		return
	}
	s.alerts = append(s.alerts, model.Alert{
		Label:      alert.Label,
		Confidence: alert.Confidence,
		ClientID:   clientID,
		Timestamp:  alert.At,
	})

	if len(s.alerts) >= s.limit {
		select {
		case s.flushNow <- struct{}{}:
		default:
		}
	}
}

// Pending returns how many alerts wait for the next flush.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// FlushAlerts writes buffered alerts in one batch and resets the buffer.
// On failure the alerts stay buffered for the next attempt.
func (s *BufferService) FlushAlerts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped > 0 {
		s.logger.Warning("Alert journal dropped %d alerts while the buffer was full", s.dropped)
		s.dropped = 0
	}
	if len(s.alerts) == 0 {
		return
	}

	if err := s.alertRepo.InsertBatch(s.alerts); err != nil {
		s.logger.Error("Error saving alerts to database: %v", err)
		return
	}

	s.logger.Info("Flushed %d alerts to database", len(s.alerts))
	s.alerts = s.alerts[:0]
}
