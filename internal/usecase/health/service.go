package health

import (
	"context"
	"sort"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

type probe struct {
	name  string
	check func(ctx context.Context) error
}

// Service coordinates health checks over the bot's dependencies.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service with the primary database probe.
func New(db Pinger) *Service {
	s := &Service{timeout: defaultCheckTimeout}
	return s.WithDatabase("database", db)
}

// WithDatabase adds a named datastore probe (e.g. "redis").
func (s *Service) WithDatabase(name string, db Pinger) *Service {
	if db != nil {
		s.probes = append(s.probes, probe{name: name, check: db.Ping})
	}
	return s
}

// WithEmbedding adds the embedding provider probe. nil is ignored.
func (s *Service) WithEmbedding(emb EmbeddingChecker) *Service {
	if emb != nil {
		s.probes = append(s.probes, probe{name: "embedding", check: emb.HealthCheck})
	}
	return s
}

// Names returns the registered component names in sorted order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.probes))
	for _, p := range s.probes {
		names = append(names, p.name)
	}
	sort.Strings(names)
	return names
}

// Check runs every probe under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	failed := 0

	for _, p := range s.probes {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.check(pctx)
		cancel()

		if err != nil {
			checks[p.name] = CheckError
			failed++
			continue
		}
		checks[p.name] = CheckOK
	}

	status := Healthy
	switch {
	case len(s.probes) > 0 && failed == len(s.probes):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
