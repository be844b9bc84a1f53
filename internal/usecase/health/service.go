package health

import (
	"context"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed; replies may fall back.
	Degraded Status = "degraded"
	// Unhealthy indicates the knowledge base cannot be served.
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

// Component names reported in Report.Checks.
const (
	ComponentKnowledge = "knowledge"
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	knowledge KnowledgeLoader
	db        DBPinger
	embedding EmbeddingChecker
	logger    *zap.Logger
}

// New creates a Service. knowledge is nil when the remote index serves
// documents; db is nil without Redis; embedding is nil for local strategies.
func New(knowledge KnowledgeLoader, db DBPinger, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{knowledge: knowledge, db: db, embedding: embedding, logger: logger}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.knowledge != nil {
		checks[ComponentKnowledge] = s.run(ComponentKnowledge, s.knowledge.Initialize(ctx))
		if checks[ComponentKnowledge] == CheckError {
			status = Unhealthy
		}
	}
	if s.db != nil {
		checks[ComponentDatabase] = s.run(ComponentDatabase, s.db.Ping(ctx))
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.run(ComponentEmbedding, s.embedding.HealthCheck(ctx))
	}

	if status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(component string, err error) CheckResult {
	if err != nil {
		s.logger.Warn("Health check failed", zap.String("component", component), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
