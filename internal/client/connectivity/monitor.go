package connectivity

import (
	"context"
	"time"

	"github.com/brightfield/sitesurvey/internal/logging"
)

// Event is a user-facing connectivity notification.
type Event string

const (
	// EventOnline signals that the connection was restored.
	EventOnline Event = "online"
	// EventOffline signals that the client is now working offline.
	EventOffline Event = "offline"
)

// Signal reports the host's binary online/offline status. It is the sole
// authority for reachability: quality-probe failures never flip it.
type Signal interface {
	Online(ctx context.Context) bool
}

// Prober measures round-trip latency for the quality estimate.
type Prober interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Trigger starts a sync drain. Implemented by the sync orchestrator; the
// monitor never blocks on it.
type Trigger interface {
	TriggerSync(ctx context.Context)
}

// PingSignal adapts a Prober into a Signal by treating a successful ping as
// reachable.
type PingSignal struct {
	Prober  Prober
	Timeout time.Duration
}

func (p *PingSignal) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := p.Prober.Ping(ctx)
	return err == nil
}

// Monitor owns the watch loop: it observes the Signal on a fixed interval,
// maintains the shared State, emits Events, refreshes the quality estimate,
// and schedules a debounced sync trigger on reconnect.
type Monitor struct {
	signal  Signal
	prober  Prober
	state   *State
	trigger Trigger
	notify  func(Event)
	logger  logging.Logger

	checkInterval   time.Duration
	qualityInterval time.Duration
	triggerDelay    time.Duration

	lastQualityProbe time.Time
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithIntervals overrides the reachability and quality probe cadence.
func WithIntervals(check, quality time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.checkInterval = check
		m.qualityInterval = quality
	}
}

// WithTriggerDelay overrides the reconnect debounce before a sync trigger.
func WithTriggerDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.triggerDelay = d }
}

// WithNotify registers the UI notification callback.
func WithNotify(fn func(Event)) MonitorOption {
	return func(m *Monitor) { m.notify = fn }
}

func NewMonitor(signal Signal, prober Prober, state *State, trigger Trigger, logger logging.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		signal:          signal,
		prober:          prober,
		state:           state,
		trigger:         trigger,
		logger:          logger,
		checkInterval:   3 * time.Second,
		qualityInterval: 30 * time.Second,
		triggerDelay:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch runs the monitoring loop until ctx is cancelled. An initial check
// runs immediately so the state is populated before the first ticker fire.
func (m *Monitor) Watch(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	online := m.signal.Online(ctx)
	changed := m.state.SetOnline(online)

	if changed {
		if online {
			m.logger.Info(ctx, "connection restored")
			m.emit(EventOnline)
			m.scheduleTrigger(ctx)
		} else {
			m.logger.Info(ctx, "working offline")
			m.emit(EventOffline)
			m.state.SetQuality(QualityUnknown)
			// An in-flight drain is left alone; its operations fail and
			// reschedule individually.
		}
	}

	if online && time.Since(m.lastQualityProbe) >= m.qualityInterval {
		m.lastQualityProbe = time.Now()
		m.probeQuality(ctx)
	}
}

func (m *Monitor) probeQuality(ctx context.Context) {
	latency, err := m.prober.Ping(ctx)
	if err != nil {
		// Only the reachability signal decides offline; a failed probe just
		// degrades the estimate.
		m.state.SetQuality(QualityPoor)
		return
	}
	m.state.SetQuality(ClassifyLatency(latency))
}

// scheduleTrigger fires the sync trigger after the debounce, unless the
// connection dropped again in the meantime. The delay absorbs flapping
// connections that would otherwise cause redundant drains.
func (m *Monitor) scheduleTrigger(ctx context.Context) {
	if m.trigger == nil {
		return
	}
	go func() {
		select {
		case <-time.After(m.triggerDelay):
		case <-ctx.Done():
			return
		}
		if !m.state.Snapshot().Online {
			return
		}
		m.trigger.TriggerSync(ctx)
	}()
}

func (m *Monitor) emit(e Event) {
	if m.notify != nil {
		m.notify(e)
	}
}
