// Package health provides Kubernetes-style liveness and readiness probes.
//
// Every registered probe runs on its own ticker goroutine. Probes carry
// failure/success thresholds so a single slow check does not flip the
// reported state: a probe turns unhealthy only after failing consecutively
// failureThreshold times, and recovers after successThreshold passes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports nil when the probed component is healthy.
type CheckFunc func(ctx context.Context) error

type probeKind int

const (
	liveness probeKind = iota
	readiness
)

// probe is a single registered check plus its runtime state.
//
// tick() runs on exactly one goroutine, so the consecutive counters need no
// locking. healthy and lastErr are also read by HTTP handlers and use
// atomics.
type probe struct {
	name    string
	kind    probeKind
	timeout time.Duration
	check   CheckFunc

	failureThreshold int
	successThreshold int
	fails            int
	passes           int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		if p.fails++; p.fails >= p.failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	if p.passes++; p.passes >= p.successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error(), true
	}
	return "check is unhealthy", true
}

// Service tracks liveness and readiness for one process. The zero state is
// not ready; call SetReady(true) once initialization finishes and
// SetReady(false) at the start of graceful shutdown.
type Service struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probe
	cancel context.CancelFunc
}

func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a check that decides whether the process itself
// is functioning, such as goroutine count or GC pause duration.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	s.add(name, liveness, timeout, check)
}

// AddReadinessCheck registers a check that decides whether the service can
// take traffic, such as database connectivity.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	s.add(name, readiness, timeout, check)
}

func (s *Service) add(name string, kind probeKind, timeout time.Duration, check CheckFunc) {
	p := &probe{
		name:             name,
		kind:             kind,
		timeout:          timeout,
		check:            check,
		failureThreshold: 3,
		successThreshold: 1,
	}
	p.healthy.Store(true) // assume healthy until proven otherwise

	s.mu.Lock()
	s.probes = append(s.probes, p)
	s.mu.Unlock()
}

// Start launches one goroutine per registered probe, each running the check
// immediately and then at every interval until Stop or ctx cancellation.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probe, len(s.probes))
	copy(probes, s.probes)
	s.mu.Unlock()

	for _, p := range probes {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.tick(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.tick(ctx)
				}
			}
		}()
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady toggles the manual readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports true only when the service was marked ready and every
// readiness probe is passing.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	for _, p := range s.snapshot(readiness) {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

func (s *Service) snapshot(kind probeKind) []*probe {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*probe, 0, len(s.probes))
	for _, p := range s.probes {
		if p.kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} when all liveness probes
// pass, otherwise 503 with the failing probes.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(s.snapshot(liveness)))
}

// ReadyEndpoint serves /readyz: 200 only when the service is marked ready
// and all readiness probes pass.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	f := failures(s.snapshot(readiness))
	if !s.ready.Load() {
		f["_readiness"] = "service is not ready"
	}
	writeStatus(w, f)
}

func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		if msg, failed := p.failure(); failed {
			out[p.name] = msg
		}
	}
	return out
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
