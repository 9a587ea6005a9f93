// Package health provides Kubernetes-style liveness and readiness probes.
//
// Each registered check runs on its own ticker goroutine. Checks carry
// failure/success thresholds so a single slow poll does not flap the probe:
// a check turns unhealthy only after consecutive failures and healthy again
// after consecutive successes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// check holds configuration and runtime state for a single probe. The
// consecutive counters are touched only by the single run goroutine; healthy
// and lastErr are read concurrently by HTTP handlers and therefore atomic.
type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc

	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe(probeCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.consecutiveFails = 0
	c.consecutiveOK++
	if c.consecutiveOK >= c.successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) status() (bool, error) {
	ok := c.healthy.Load()
	if p := c.lastErr.Load(); p != nil {
		return ok, *p
	}
	return ok, nil
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a Health service. It starts not-ready; call SetReady(true)
// once initialization finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness probe (is the process functional).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.add(&h.liveness, name, timeout, probe)
}

// AddReadinessCheck registers a readiness probe (can the process serve
// traffic, e.g. database reachability).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.add(&h.readiness, name, timeout, probe)
}

func (h *Health) add(dst *[]*check, name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &check{
		name:             name,
		timeout:          timeout,
		probe:            probe,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	c.healthy.Store(true) // assume healthy until proven otherwise
	*dst = append(*dst, c)
}

// Start launches one goroutine per registered check, polling at interval.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, h.cancel = context.WithCancel(ctx)
	all := append(append([]*check{}, h.liveness...), h.readiness...)
	h.done = make(chan struct{})

	var wg sync.WaitGroup
	for _, c := range all {
		wg.Add(1)
		go func(c *check) {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
	go func() {
		wg.Wait()
		close(h.done)
	}()
}

// Stop cancels all check goroutines and waits for them to exit.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// SetReady toggles the overall readiness gate, independent of checks.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check{}, h.liveness...)
	h.mu.RUnlock()

	h.respond(w, checks, true)
}

// ReadyEndpoint serves the readiness probe. It fails when SetReady(false)
// regardless of individual check results.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check{}, h.readiness...)
	h.mu.RUnlock()

	h.respond(w, checks, h.ready.Load())
}

func (h *Health) respond(w http.ResponseWriter, checks []*check, gate bool) {
	healthy := gate
	results := make(map[string]string, len(checks))
	for _, c := range checks {
		ok, err := c.status()
		if !ok {
			healthy = false
		}
		switch {
		case ok:
			results[c.name] = "ok"
		case err != nil:
			results[c.name] = err.Error()
		default:
			results[c.name] = "unhealthy"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": results,
	})
}
