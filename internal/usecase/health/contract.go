package health

import "context"

// Pinger is any datastore the bot depends on: Postgres always, Redis when configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
