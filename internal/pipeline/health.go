package pipeline

import (
	"context"
	"log"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusError     = "error"
	StatusDegraded  = "degraded"
)

// HealthStatus reports the pipeline and each probed service independently.
type HealthStatus struct {
	Pipeline string            `json:"pipeline"`
	Services map[string]string `json:"services"`
}

// HealthCheck probes every external collaborator. A failing or panicking
// probe marks that one service without aborting the others; the pipeline is
// healthy only when all services are.
func (s *Service) HealthCheck(ctx context.Context) HealthStatus {
	services := map[string]string{
		"storage":   probe(func() bool { return s.storage.Ping(ctx) }),
		"ocr":       probe(func() bool { return s.ocr.Ping(ctx) }),
		"llm":       probe(func() bool { return s.llm.CheckConnection(ctx) }),
		"websocket": probe(func() bool { s.notifier.Count(); return true }),
	}

	status := StatusHealthy
	for name, st := range services {
		if st != StatusHealthy {
			status = StatusDegraded
			log.Printf("HEALTH_DEGRADED service=%s status=%s", name, st)
		}
	}

	return HealthStatus{Pipeline: status, Services: services}
}

func probe(check func() bool) (status string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("HEALTH_PROBE_PANIC recovered=%v", r)
			status = StatusError
		}
	}()

	if check() {
		return StatusHealthy
	}
	return StatusUnhealthy
}
