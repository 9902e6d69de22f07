package storage

import (
	"context"

	"github.com/fundwatch/navcache/core"
)

// Index kinds served by the search index.
const (
	IndexFund      = "fund"
	IndexFundHouse = "fund_house"
)

// TokenMatch is one search-index entry: an indexed name token and the
// key (scheme name or fund house name) that owns it.
type TokenMatch struct {
	Token string
	Key   string
}

// SnapshotWriter publishes complete snapshots.
// Implementations must guarantee all-or-nothing visibility: no
// reader-visible key changes until every record and index entry of the
// snapshot is staged, and a failure mid-publish leaves the previously
// published snapshot fully intact and serving.
type SnapshotWriter interface {
	// Publish stages the snapshot under a fresh generation and makes it
	// the served generation with a single atomic pointer swap.
	// Returns the generation number on success. On failure the staged
	// data is discarded and ErrPublishFailed is returned; retrying is
	// the caller's policy, never this component's.
	Publish(ctx context.Context, snapshot *core.Snapshot) (uint64, error)

	// PutStatus persists the outcome record of an ingestion run.
	PutStatus(ctx context.Context, status *core.IngestStatus) error

	// Close releases writer resources.
	Close() error
}

// SnapshotReader serves lookups from the currently published snapshot.
// Reads never block on, and are never blocked by, an in-progress publish.
type SnapshotReader interface {
	// GetFund retrieves a record by scheme code, or by exact scheme name.
	// Returns ErrNotFound if the key is absent from the live snapshot,
	// ErrNoSnapshot if nothing has been published yet.
	GetFund(ctx context.Context, key string) (*core.FundRecord, error)

	// GetAllFundNames returns every scheme name in the live snapshot,
	// sorted. Returns an empty slice when no snapshot is published.
	GetAllFundNames(ctx context.Context) ([]string, error)

	// GetFundHouse returns the fund house's records in bulletin order.
	// Returns ErrNotFound for an unknown fund house name.
	GetFundHouse(ctx context.Context, name string) ([]*core.FundRecord, error)

	// SearchIndex returns the index entries of the given kind whose token
	// begins with prefix.
	SearchIndex(ctx context.Context, kind, prefix string) ([]TokenMatch, error)

	// Manifest returns the manifest of the live snapshot.
	// Returns ErrNoSnapshot if nothing has been published yet.
	Manifest(ctx context.Context) (*core.SnapshotManifest, error)

	// Status returns the outcome of the most recent ingestion run.
	// Returns ErrNotFound when no run has been recorded.
	Status(ctx context.Context) (*core.IngestStatus, error)
}
