// Package health serves liveness and readiness probes backed by periodic
// background checks.
//
// A check turns unhealthy after FailureThreshold consecutive failures and
// healthy again after SuccessThreshold consecutive successes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Kind tells liveness checks apart from readiness checks.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

func (k Kind) String() string {
	if k == Readiness {
		return "readiness"
	}
	return "liveness"
}

// Check describes one registered check.
type Check struct {
	Name    string
	Timeout time.Duration
	Func    CheckFunc
	// FailureThreshold defaults to 3.
	FailureThreshold int
	// SuccessThreshold defaults to 1.
	SuccessThreshold int
}

type probe struct {
	Check
	kind Kind

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// Only touched by the goroutine running the probe.
	fails, oks int
}

func (p *probe) err() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

func (p *probe) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := p.Func(checkCtx)
	p.lastErr.Store(&err)

	lg := zctx.From(ctx).With(zap.String("check", p.Name), zap.Stringer("kind", p.kind))
	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= p.FailureThreshold && p.healthy.Swap(false) {
			lg.Warn("Health check failing", zap.Int("failures", p.fails), zap.Error(err))
		}
		return
	}
	p.fails = 0
	p.oks++
	if p.oks >= p.SuccessThreshold && !p.healthy.Swap(true) {
		lg.Info("Health check recovered")
	}
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probe
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Health. It reports not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Add registers a check. Checks start out healthy.
func (h *Health) Add(kind Kind, c Check) {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	p := &probe{Check: c, kind: kind}
	p.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, p)
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.Add(Liveness, Check{Name: name, Timeout: timeout, Func: fn})
}

// AddReadinessCheck registers a check that decides whether the service
// should receive traffic.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.Add(Readiness, Check{Name: name, Timeout: timeout, Func: fn})
}

// Start runs every registered check immediately and then every interval,
// each in its own goroutine, until Stop is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append([]*probe(nil), h.probes...)
	h.mu.Unlock()

	for _, p := range probes {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}()
	}
}

// Stop cancels the check goroutines and waits for them to exit. It is safe
// to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// SetReady sets the manual readiness flag. The server marks itself not
// ready at the start of a graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check is healthy.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	_, healthy := h.report(Readiness)
	return healthy
}

// report returns the state of every check of kind, keyed by name.
func (h *Health) report(kind Kind) (map[string]string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	states := make(map[string]string)
	healthy := true
	for _, p := range h.probes {
		if p.kind != kind {
			continue
		}
		if p.healthy.Load() {
			states[p.Name] = "ok"
			continue
		}
		healthy = false
		if err := p.err(); err != nil {
			states[p.Name] = err.Error()
		} else {
			states[p.Name] = "unhealthy"
		}
	}
	return states, healthy
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	states, healthy := h.report(Liveness)
	writeStatus(w, states, healthy)
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	states, healthy := h.report(Readiness)
	if !h.ready.Load() {
		states["_readiness"] = "service is not ready"
		healthy = false
	}
	writeStatus(w, states, healthy)
}

func writeStatus(w http.ResponseWriter, states map[string]string, healthy bool) {
	resp := statusResponse{Status: "ok", Checks: states}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
