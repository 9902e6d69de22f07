// Copyright 2026 Fundwatch Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package navcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/fundwatch/navcache/bulletin"
	"github.com/fundwatch/navcache/core"
	"github.com/fundwatch/navcache/ingestion"
	"github.com/fundwatch/navcache/search"
	"github.com/fundwatch/navcache/storage/badger"
)

// Database bundles the NAV cache's storage, search, and refresh
// pipeline behind one handle.
type Database struct {
	backend  *badger.Backend
	store    *badger.SnapshotStore
	reader   *badger.Reader
	searcher *search.Searcher
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	source   bulletin.Source
	logger   *slog.Logger
}

// WithInMemory keeps all data in memory instead of on disk. Intended
// for tests and throwaway environments.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithSource overrides the bulletin source.
// Default is an HTTP source pointed at the AMFI portal.
func WithSource(source bulletin.Source) DatabaseOption {
	return func(o *databaseOptions) {
		o.source = source
	}
}

// WithDatabaseLogger sets a custom logger.
// Default is slog.Default().
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens (or creates) a NAV cache at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	source := options.source
	if source == nil {
		source = bulletin.NewHTTPSource(bulletin.WithSourceLogger(options.logger))
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Snapshot store (writer side)
	store, err := badger.NewSnapshotStore(backend, badger.WithStoreLogger(options.logger))
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Reader and searcher over the published snapshot
	reader := badger.NewReader(backend)
	searcher, err := search.NewSearcher(reader, search.WithLogger(options.logger))
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	// Refresh pipeline
	pipeline, err := ingestion.NewPipeline(source, store, ingestion.WithLogger(options.logger))
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:  backend,
		store:    store,
		reader:   reader,
		searcher: searcher,
		pipeline: pipeline,
		logger:   options.logger,
	}, nil
}

// Close releases the pipeline, store, and backend.
// The database must not be used after Close.
func (db *Database) Close() error {
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing snapshot store", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Ingest refreshes the cache from the bulletin for the given date.
// Concurrent calls fail with ingestion.ErrIngestionInProgress.
func (db *Database) Ingest(ctx context.Context, date time.Time) (*ingestion.RunReport, error) {
	return db.pipeline.Ingest(ctx, date)
}

// LastStatus returns the most recent refresh run's status.
func (db *Database) LastStatus(ctx context.Context) (*core.IngestStatus, error) {
	return db.reader.Status(ctx)
}

// Manifest describes the currently published snapshot.
func (db *Database) Manifest(ctx context.Context) (*core.SnapshotManifest, error) {
	return db.reader.Manifest(ctx)
}

// GetFund looks up one fund record by scheme code or exact scheme name.
func (db *Database) GetFund(ctx context.Context, key string) (*core.FundRecord, error) {
	return db.reader.GetFund(ctx, key)
}

// GetAllFundNames lists every scheme name in the published snapshot,
// sorted.
func (db *Database) GetAllFundNames(ctx context.Context) ([]string, error) {
	return db.reader.GetAllFundNames(ctx)
}

// GetFundHouse returns a fund house's records in bulletin order.
func (db *Database) GetFundHouse(ctx context.Context, name string) ([]*core.FundRecord, error) {
	return db.reader.GetFundHouse(ctx, name)
}

// Search runs a ranked name search. queryType is search.QueryTypeFund
// or search.QueryTypeFundHouse.
func (db *Database) Search(ctx context.Context, queryType, query string, maxHits int) ([]*search.Result, error) {
	return db.searcher.Search(ctx, queryType, query, maxHits)
}
