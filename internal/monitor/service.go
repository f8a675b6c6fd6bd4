// Package monitor probes the upstream API on an interval and keeps the last
// result for readiness checks. Each run also sweeps idle per-session state.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the probe loop.
type Config struct {
	URL            string
	Interval       time.Duration
	RequestTimeout time.Duration
	LatencyWarning time.Duration
	IdleAfter      time.Duration
}

// Sweeper drops state that has been idle for longer than a cutoff.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Snapshot is the outcome of the latest probe.
type Snapshot struct {
	Up         bool      `json:"up"`
	StatusCode int       `json:"status_code,omitempty"`
	ResponseMS int64     `json:"response_ms"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Service runs the probe loop.
type Service struct {
	cfg      Config
	client   *http.Client
	sweepers []Sweeper
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	last      *Snapshot
	lastAlert map[string]time.Time

	once   sync.Once
	cancel context.CancelFunc
}

// NewService creates a monitor. notifier may be nil.
func NewService(cfg Config, logger zerolog.Logger, notifier Notifier, sweepers ...Sweeper) *Service {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		cfg:       cfg,
		client:    &http.Client{Timeout: timeout},
		sweepers:  sweepers,
		notifier:  notifier,
		logger:    logger.With().Str("component", "monitor").Logger(),
		now:       time.Now,
		lastAlert: make(map[string]time.Time),
	}
}

// Start launches the loop. Safe to call more than once.
func (s *Service) Start(parent context.Context) {
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		go s.runLoop(ctx)
	})
}

// Stop ends the loop.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) runLoop(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("monitor loop started")
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("monitor loop stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce probes the API and sweeps idle state.
func (s *Service) RunOnce(ctx context.Context) {
	snap := s.probe(ctx)

	s.mu.Lock()
	prev := s.last
	s.last = &snap
	s.mu.Unlock()

	s.evaluate(ctx, prev, snap)

	if s.cfg.IdleAfter > 0 {
		for _, sw := range s.sweepers {
			if n := sw.Sweep(s.cfg.IdleAfter); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("swept idle session state")
			}
		}
	}
}

// Last returns the latest snapshot, if a probe has run.
func (s *Service) Last() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Snapshot{}, false
	}
	return *s.last, true
}

func (s *Service) probe(ctx context.Context) Snapshot {
	snap := Snapshot{CheckedAt: s.now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		snap.Error = err.Error()
		return snap
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	snap.ResponseMS = time.Since(start).Milliseconds()
	if err != nil {
		snap.Error = err.Error()
		return snap
	}
	defer resp.Body.Close()

	// any answer short of a server error means the API is serving requests
	snap.StatusCode = resp.StatusCode
	snap.Up = resp.StatusCode < http.StatusInternalServerError
	if !snap.Up {
		snap.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return snap
}

const (
	alertDown      = "down"
	alertRecovered = "recovered"
	alertLatency   = "latency"
)

func (s *Service) evaluate(ctx context.Context, prev *Snapshot, snap Snapshot) {
	wasUp := prev == nil || prev.Up
	latency := time.Duration(snap.ResponseMS) * time.Millisecond

	switch {
	case wasUp && !snap.Up:
		s.logger.Error().Str("error", snap.Error).Msg("upstream API unreachable")
		s.alert(ctx, AlertMessage{Kind: alertDown, Severity: SeverityCritical, Snapshot: snap, Detail: snap.Error})
	case !wasUp && snap.Up:
		s.logger.Info().Int64("response_ms", snap.ResponseMS).Msg("upstream API recovered")
		s.alert(ctx, AlertMessage{Kind: alertRecovered, Severity: SeverityInfo, Snapshot: snap})
	case snap.Up && s.cfg.LatencyWarning > 0 && latency > s.cfg.LatencyWarning:
		s.logger.Warn().Dur("latency", latency).Msg("upstream API slow")
		s.alert(ctx, AlertMessage{
			Kind:     alertLatency,
			Severity: SeverityWarning,
			Snapshot: snap,
			Detail:   fmt.Sprintf("response %s above limit (%s)", latency, s.cfg.LatencyWarning),
		})
	}
}

// alert sends at most one message per kind every 30 minutes.
func (s *Service) alert(ctx context.Context, msg AlertMessage) {
	if s.notifier == nil {
		return
	}
	msg.Target = s.cfg.URL

	now := s.now()
	s.mu.Lock()
	if last, ok := s.lastAlert[msg.Kind]; ok && now.Sub(last) < 30*time.Minute {
		s.mu.Unlock()
		return
	}
	s.lastAlert[msg.Kind] = now
	s.mu.Unlock()

	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("alert", msg.Kind).Msg("alert delivery failed")
	}
}
