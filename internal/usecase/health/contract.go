package health

import "context"

// StorePinger checks document store connectivity.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports how many documents the store holds.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
