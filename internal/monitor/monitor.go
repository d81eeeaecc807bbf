package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/montelibero/julesbot/internal/jules"
)

// Source lists the current sessions. Implemented by *jules.Client.
type Source interface {
	ListSessions(ctx context.Context, pageSize int) ([]jules.Session, error)
}

// Notifier delivers one text message to the administrator chat.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// RenderFunc formats a batch of changes into one notification message.
type RenderFunc func(changes []Change) string

// ErrAlreadyRunning is returned by Run when a monitoring loop is active.
var ErrAlreadyRunning = errors.New("monitoring is already active")

const (
	// DefaultInterval is the poll interval when none is configured.
	DefaultInterval = 60 * time.Second
	// DefaultPageSize is the session page size when none is configured.
	DefaultPageSize = 10

	defaultCallTimeout = 45 * time.Second
)

// Config wires a Monitor's collaborators and timing.
type Config struct {
	Source      Source
	Notifier    Notifier
	Render      RenderFunc
	Clock       clock.Clock
	Logger      *zap.SugaredLogger
	Interval    time.Duration
	PageSize    int
	CallTimeout time.Duration
}

// Monitor owns the observed snapshot and runs the poll-diff-notify-commit
// cycle. One goroutine at a time executes the loop; the snapshot is
// committed only by that goroutine and survives between runs.
type Monitor struct {
	source      Source
	notifier    Notifier
	render      RenderFunc
	clock       clock.Clock
	log         *zap.SugaredLogger
	interval    time.Duration
	pageSize    int
	callTimeout time.Duration

	mu       sync.Mutex
	snapshot Snapshot
	running  bool
}

// New creates a Monitor. Source, Notifier, and Render are required;
// everything else falls back to defaults.
func New(cfg Config) *Monitor {
	m := &Monitor{
		source:      cfg.Source,
		notifier:    cfg.Notifier,
		render:      cfg.Render,
		clock:       cfg.Clock,
		log:         cfg.Logger,
		interval:    cfg.Interval,
		pageSize:    cfg.PageSize,
		callTimeout: cfg.CallTimeout,
		snapshot:    Snapshot{},
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.log == nil {
		m.log = zap.NewNop().Sugar()
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.pageSize <= 0 {
		m.pageSize = DefaultPageSize
	}
	if m.callTimeout <= 0 {
		m.callTimeout = defaultCallTimeout
	}
	return m
}

// Running reports whether a monitoring loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Observed returns a copy of the current snapshot.
func (m *Monitor) Observed() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot.Clone()
}

// Run executes the monitoring loop until ctx is cancelled or, when
// duration is positive, until the duration elapses (a finish notice is
// sent in that case). The first tick runs immediately. Only one loop may
// run at a time; concurrent calls return ErrAlreadyRunning.
//
// A tick in flight is never aborted by cancellation: its API calls carry
// their own timeouts and cancellation is only observed between ticks,
// so the snapshot is never committed half-updated.
func (m *Monitor) Run(ctx context.Context, duration time.Duration) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := m.clock.Timer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	m.log.Infow("monitoring started", "interval", m.interval, "duration", duration)
	m.tick()

	for {
		select {
		case <-ctx.Done():
			m.log.Infow("monitoring stopped")
			return nil
		case <-deadline:
			m.log.Infow("monitoring window elapsed", "duration", duration)
			m.notify(fmt.Sprintf("Monitoring finished (%s completed).", duration))
			return nil
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick runs one poll-diff-notify-commit cycle.
func (m *Monitor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout)
	defer cancel()

	sessions, err := m.source.ListSessions(ctx, m.pageSize)
	if err != nil {
		// Skip the tick: the snapshot stays untouched and the next
		// tick diffs against the last good state.
		m.log.Errorw("fetch failed, tick skipped", "error", err)
		return
	}

	changes := Diff(m.Observed(), sessions)
	for _, ch := range changes {
		m.log.Infow("session change detected",
			"kind", ch.Kind, "session", ch.Session.CleanID(), "state", ch.Session.State, "previous", ch.PreviousState)
	}

	if len(changes) > 0 {
		// A failed delivery is logged but must not block the commit
		// below, or the same change would be re-sent forever.
		m.notify(m.render(changes))
	}

	m.mu.Lock()
	m.snapshot = Commit(sessions)
	m.mu.Unlock()
}

func (m *Monitor) notify(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout)
	defer cancel()

	if err := m.notifier.Send(ctx, text); err != nil {
		m.log.Errorw("notification delivery failed", "error", err)
	}
}
