// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/remedyops/billcheck/internal/benchmark"
)

// Snapshot is one immutable, versioned record of aggregated benchmark
// metrics for a configuration key. Exactly one snapshot per key is current
// at any time.
type Snapshot struct {
	CreatedAt        time.Time        `json:"created_at"`
	Metrics          benchmark.Result `json:"metrics"`
	ConfigurationKey string           `json:"configuration_key"`
	Version          int              `json:"version"`
	IsCurrent        bool             `json:"is_current"`
}

// MetricDelta compares one metric between two snapshot versions.
type MetricDelta struct {
	Metric        string  `json:"metric"`
	ValueA        float64 `json:"value_a"`
	ValueB        float64 `json:"value_b"`
	Delta         float64 `json:"delta"`
	PercentChange float64 `json:"percent_change"`
}

// SnapshotStore is the persistence contract for benchmark snapshots.
// Writing is single-writer per configuration key: the store allocates the
// next monotonic version and atomically flips the current pointer.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, configurationKey string, metrics benchmark.Result) (*Snapshot, error)
	GetCurrent(ctx context.Context, configurationKey string) (*Snapshot, error)
	GetVersion(ctx context.Context, configurationKey string, version int) (*Snapshot, error)
	GetHistory(ctx context.Context, configurationKey string, limit int) ([]Snapshot, error)
	Checkout(ctx context.Context, configurationKey string, version int) error
	Compare(ctx context.Context, configurationKey string, versionA, versionB int) ([]MetricDelta, error)

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
