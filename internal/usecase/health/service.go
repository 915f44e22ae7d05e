package health

import (
	"context"
	"os"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an auxiliary component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable.
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

// Component names used as Report.Checks keys.
const (
	CheckStore     = "store"
	CheckEmbedding = "embedding"
	CheckUploadDir = "upload_dir"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int // -1 when the count is unavailable
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	docs      DocumentCounter
	embedding EmbeddingChecker
	uploadDir string
}

// New creates a Service. store and embedding can be nil: the in-memory store
// has nothing to ping and embeddings are optional.
func New(store StorePinger, docs DocumentCounter, embedding EmbeddingChecker) *Service {
	return &Service{store: store, docs: docs, embedding: embedding}
}

// WithUploadDir adds a check that dir exists and is a directory.
func (s *Service) WithUploadDir(dir string) *Service {
	s.uploadDir = dir
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	storeOK := true
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			storeOK = false
		}
	}

	documents := -1
	if storeOK && s.docs != nil {
		if n, err := s.docs.Count(ctx); err == nil {
			documents = n
		} else {
			storeOK = false
		}
	}

	if storeOK {
		checks[CheckStore] = CheckOK
	} else {
		checks[CheckStore] = CheckError
		status = Unhealthy
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[CheckEmbedding] = CheckError
		} else {
			checks[CheckEmbedding] = CheckOK
		}
	}

	if s.uploadDir != "" {
		if fi, err := os.Stat(s.uploadDir); err != nil || !fi.IsDir() {
			checks[CheckUploadDir] = CheckError
		} else {
			checks[CheckUploadDir] = CheckOK
		}
	}

	if status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks, Documents: documents}
}
