// Package hazard turns detection results into throttled hazard alerts.
package hazard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"hazardcam/internal/logger"
	"hazardcam/internal/model"
	"hazardcam/internal/service/state"
)

// Alert is emitted at most once per label per cool-down window.
type Alert struct {
	Label      string
	Confidence float64
	At         time.Time
}

// Notifier receives emitted alerts. Implementations must not block for long;
// Notify is called from the receive loop of the connection manager.
type Notifier interface {
	Notify(alert Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Alert)

func (f NotifierFunc) Notify(alert Alert) { f(alert) }

// MultiNotifier forwards every alert to each notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(alert Alert) {
	for _, n := range m {
		n.Notify(alert)
	}
}

// StateReader is the slice of the shared client state the debouncer reads.
type StateReader interface {
	Snapshot() state.Snapshot
}

type Debouncer struct {
	cooldown time.Duration
	clock    clock.Clock
	state    StateReader
	notifier Notifier
	logger   *logger.Logger

	mu      sync.Mutex
	timers  *cooldownQueue
	stopped bool
	kick    chan struct{}
}

// NewDebouncer creates a debouncer. A nil clock means the wall clock.
func NewDebouncer(cooldown time.Duration, clk clock.Clock, state StateReader, notifier Notifier, logger *logger.Logger) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	if notifier == nil {
		notifier = MultiNotifier(nil)
	}
	return &Debouncer{
		cooldown: cooldown,
		clock:    clk,
		state:    state,
		notifier: notifier,
		logger:   logger,
		timers:   newCooldownQueue(),
		kick:     make(chan struct{}, 1),
	}
}

// OnResult starts a cool-down for every hazard label in result that has none,
// alerting for it unless muted. It returns the number of alerts emitted.
func (d *Debouncer) OnResult(result model.DetectionResult) int {
	snap := d.state.Snapshot()
	if snap.Hazards.Len() == 0 {
		return 0
	}

	now := d.clock.Now()
	var alerts []Alert
	started := false

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return 0
	}
	d.timers.expire(now)
	for _, box := range result.Boxes {
		if !snap.Hazards.Contains(box.Label) || d.timers.active(box.Label) {
			continue
		}
		// The timer starts even when muted; mute only silences the utterance.
		d.timers.start(box.Label, now.Add(d.cooldown))
		started = true
		if !snap.Mute {
			alerts = append(alerts, Alert{Label: box.Label, Confidence: box.Confidence, At: now})
		}
	}
	d.mu.Unlock()

	if started {
		select {
		case d.kick <- struct{}{}:
		default:
		}
	}

	for _, alert := range alerts {
		d.logger.Info("🚨 Hazard alert: %s (%.2f)", alert.Label, alert.Confidence)
		d.notifier.Notify(alert)
	}
	return len(alerts)
}

// Run expires cool-downs on schedule until ctx is done, then cancels every
// active timer.
func (d *Debouncer) Run(ctx context.Context) error {
	for {
		d.mu.Lock()
		next, ok := d.timers.next()
		d.mu.Unlock()

		var timer *clock.Timer
		var fire <-chan time.Time
		if ok {
			timer = d.clock.Timer(next.Sub(d.clock.Now()))
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			d.Stop()
			return nil
		case <-d.kick:
		case <-fire:
			d.expireDue()
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

func (d *Debouncer) expireDue() {
	d.mu.Lock()
	expired := d.timers.expire(d.clock.Now())
	d.mu.Unlock()

	for _, label := range expired {
		d.logger.Info("Hazard %s eligible for alerts again", label)
	}
}

// Stop cancels every active cool-down; later results are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers.clear()
	d.stopped = true
}

// ActiveLabels lists labels currently inside their cool-down window.
func (d *Debouncer) ActiveLabels() []string {
	d.mu.Lock()
	d.timers.expire(d.clock.Now())
	labels := d.timers.labels()
	d.mu.Unlock()

	sort.Strings(labels)
	return labels
}
