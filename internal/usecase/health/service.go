package health

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/shopdex/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search still answers, possibly with fewer results.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckOpen indicates a circuit breaker that currently rejects calls.
	CheckOpen CheckResult = "open"
)

// Component names in a Report.
const (
	ComponentIndex     = "index"
	ComponentEmbedding = "embedding"
	ComponentCache     = "cache"
)

// DefaultCheckTimeout bounds every individual check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Deps lists the components to check. Only Index is required.
type Deps struct {
	Index     Pinger
	Embedding EmbeddingChecker
	Cache     Pinger
	Breakers  BreakerReader
	// Operations are the breaker names reported as "breaker:<op>".
	Operations []string
}

// Service coordinates health checks.
type Service struct {
	deps    Deps
	timeout time.Duration
}

// New creates a Service. timeout <= 0 means DefaultCheckTimeout.
func New(deps Deps, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Service{deps: deps, timeout: timeout}
}

// Check runs all health checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult)
	)
	set := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
			logger.FromContext(ctx).Warn("Health check failed",
				zap.String("component", name),
				zap.Error(err),
			)
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	var g errgroup.Group
	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			set(name, fn(cctx))
			return nil
		})
	}

	run(ComponentIndex, s.deps.Index.Ping)
	if s.deps.Embedding != nil {
		run(ComponentEmbedding, s.deps.Embedding.HealthCheck)
	}
	if s.deps.Cache != nil {
		run(ComponentCache, s.deps.Cache.Ping)
	}
	_ = g.Wait()

	if s.deps.Breakers != nil {
		for _, op := range s.deps.Operations {
			if s.deps.Breakers.State(op) == gobreaker.StateOpen {
				checks["breaker:"+op] = CheckOpen
			}
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
