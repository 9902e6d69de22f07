package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fundwatch/navcache/core"
	"github.com/fundwatch/navcache/storage"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultStagePoolSize  = 4
	defaultStageBatchSize = 500
	reclaimBatchSize      = 1000
)

// SnapshotStore implements storage.SnapshotWriter for BadgerDB.
//
// A publish stages every key of the new snapshot under a freshly
// allocated generation namespace, invisible to readers, then swaps the
// current-generation pointer in a single transaction. The generation
// superseded by the previous swap is reclaimed afterwards, so the one
// that just went out of service stays readable for in-flight readers
// until the next publish.
type SnapshotStore struct {
	backend   *Backend
	genSeq    *badger.Sequence
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

var _ storage.SnapshotWriter = (*SnapshotStore)(nil)

// StoreOption configures a SnapshotStore.
type StoreOption func(*SnapshotStore) error

// WithStagePoolSize sets the worker pool size for staging writes.
// Default is 4, minimum 1.
func WithStagePoolSize(size int) StoreOption {
	return func(s *SnapshotStore) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithStageBatchSize sets how many keys each staging transaction writes.
func WithStageBatchSize(size int) StoreOption {
	return func(s *SnapshotStore) error {
		if size < 1 {
			size = 1
		}
		s.batchSize = size
		return nil
	}
}

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *SnapshotStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSnapshotStore creates a snapshot writer on the given backend.
func NewSnapshotStore(backend *Backend, opts ...StoreOption) (*SnapshotStore, error) {
	genSeq, err := backend.GetSequence(generationSeq)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(defaultStagePoolSize)
	if err != nil {
		genSeq.Release()
		return nil, err
	}

	s := &SnapshotStore{
		backend:   backend,
		genSeq:    genSeq,
		pool:      pool,
		batchSize: defaultStageBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the generation sequence and the staging pool.
func (s *SnapshotStore) Close() error {
	if s.pool != nil {
		s.pool.Release()
	}
	return s.genSeq.Release()
}

// kv is one staged key/value pair.
type kv struct {
	key   []byte
	value []byte
}

// Publish implements storage.SnapshotWriter.
func (s *SnapshotStore) Publish(ctx context.Context, snapshot *core.Snapshot) (uint64, error) {
	if s.backend.IsClosed() {
		return 0, fmt.Errorf("%w: %w", storage.ErrPublishFailed, storage.ErrStorageClosed)
	}

	gen, err := s.nextGeneration()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrPublishFailed, err)
	}

	s.logger.Debug("staging snapshot", "generation", gen,
		"records", len(snapshot.Order), "houses", len(snapshot.HouseOrder))

	if err := s.stage(ctx, gen, snapshot); err != nil {
		s.discardGeneration(gen)
		return 0, fmt.Errorf("%w: %w", storage.ErrPublishFailed, err)
	}

	// Cancellation is honored up to the swap: the staged namespace is
	// dropped and the live snapshot stays untouched.
	if err := ctx.Err(); err != nil {
		s.discardGeneration(gen)
		return 0, fmt.Errorf("%w: %w", storage.ErrPublishFailed, err)
	}

	reclaim, err := s.swap(gen)
	if err != nil {
		s.discardGeneration(gen)
		return 0, fmt.Errorf("%w: %w", storage.ErrPublishFailed, err)
	}

	s.logger.Info("snapshot published", "generation", gen,
		"navDate", snapshot.NAVDate.Format(core.NAVDateLayout), "records", len(snapshot.Order))

	if reclaim != 0 {
		s.reclaimGeneration(reclaim)
	}

	return gen, nil
}

// PutStatus implements storage.SnapshotWriter.
func (s *SnapshotStore) PutStatus(ctx context.Context, status *core.IngestStatus) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(ingestStatusKey), storage.MarshalStatus(status)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// nextGeneration allocates a generation number. Generation 0 means
// "no snapshot", so a 0 from the sequence is skipped.
func (s *SnapshotStore) nextGeneration() (uint64, error) {
	gen, err := s.genSeq.Next()
	if err != nil {
		return 0, err
	}
	if gen == 0 {
		gen, err = s.genSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return gen, nil
}

// stage writes every key of the snapshot under the generation's
// namespace. Batches run concurrently on the staging pool, each in its
// own transaction; none of this is reader-visible until the swap.
func (s *SnapshotStore) stage(ctx context.Context, gen uint64, snapshot *core.Snapshot) error {
	entries := s.buildEntries(gen, snapshot)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(entries); start += s.batchSize {
		end := min(start+s.batchSize, len(entries))
		batch := entries[start:end]

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				setErr(ctx.Err())
				return
			}
			err := s.backend.WithTx(func(tx *badger.Txn) error {
				for _, e := range batch {
					if err := tx.Set(e.key, e.value); err != nil {
						return err
					}
				}
				return tx.Commit()
			}, true)
			if err != nil {
				setErr(err)
			}
		})
		if err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}

	wg.Wait()
	return firstErr
}

// buildEntries assembles all key/value pairs of one generation:
// records, the scheme-name index, fund house groupings, search-index
// entries, and the manifest.
func (s *SnapshotStore) buildEntries(gen uint64, snapshot *core.Snapshot) []kv {
	entries := make([]kv, 0,
		2*len(snapshot.Order)+len(snapshot.HouseOrder)+1)

	for _, code := range snapshot.Order {
		record := snapshot.Records[code]
		entries = append(entries, kv{
			key:   makeFundKey(gen, code),
			value: storage.MarshalFundRecord(record),
		})
		entries = append(entries, kv{
			key:   makeNameKey(gen, record.SchemeName),
			value: []byte(code),
		})
	}

	for _, name := range snapshot.HouseOrder {
		entries = append(entries, kv{
			key:   makeHouseKey(gen, name),
			value: storage.MarshalFundHouse(snapshot.Houses[name]),
		})
	}

	for schemeName, tokens := range snapshot.FundCorpus {
		for _, token := range tokens {
			entries = append(entries, kv{
				key:   makeIndexKey(gen, idxFundSegment, token, schemeName),
				value: []byte(schemeName),
			})
		}
	}
	for houseName, tokens := range snapshot.HouseCorpus {
		for _, token := range tokens {
			entries = append(entries, kv{
				key:   makeIndexKey(gen, idxHouseSegment, token, houseName),
				value: []byte(houseName),
			})
		}
	}

	manifest := &core.SnapshotManifest{
		Generation:   gen,
		NAVDate:      snapshot.NAVDate,
		Checksum:     snapshot.Checksum,
		RecordCount:  len(snapshot.Order),
		HouseCount:   len(snapshot.HouseOrder),
		WarningCount: len(snapshot.Warnings),
		PublishedAt:  time.Now().UTC(),
	}
	entries = append(entries, kv{
		key:   makeManifestKey(gen),
		value: storage.MarshalManifest(manifest),
	})

	return entries
}

// swap makes gen the served generation in a single transaction and
// returns the generation that is now due for reclamation (the one
// superseded by the previous swap), or 0.
func (s *SnapshotStore) swap(gen uint64) (reclaim uint64, err error) {
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readGen(tx, currentGenKey)
		if err != nil {
			return err
		}
		reclaim, err = readGen(tx, supersededKey)
		if err != nil {
			return err
		}

		if err := tx.Set([]byte(currentGenKey), encodeGen(gen)); err != nil {
			return err
		}
		if old != 0 {
			if err := tx.Set([]byte(supersededKey), encodeGen(old)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return reclaim, nil
}

// discardGeneration removes a staged namespace after a failed or
// cancelled publish. The generation was never reader-visible.
func (s *SnapshotStore) discardGeneration(gen uint64) {
	if err := s.dropGeneration(gen); err != nil {
		s.logger.Error("error discarding staged generation", "generation", gen, "err", err)
	}
}

// reclaimGeneration removes a superseded namespace. Failures are logged;
// the next publish will retry via the superseded pointer chain.
func (s *SnapshotStore) reclaimGeneration(gen uint64) {
	if err := s.dropGeneration(gen); err != nil {
		s.logger.Warn("error reclaiming superseded generation", "generation", gen, "err", err)
		return
	}
	s.logger.Debug("reclaimed superseded generation", "generation", gen)
}

// dropGeneration deletes every key under a generation's namespace in
// bounded batches.
func (s *SnapshotStore) dropGeneration(gen uint64) error {
	prefix := []byte(makeGenPrefix(gen))

	for {
		var keys [][]byte
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid() && len(keys) < reclaimBatchSize; iter.Next() {
				keys = append(keys, iter.Item().KeyCopy(nil))
			}
			return nil
		}, false)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}

		err = s.backend.WithTx(func(tx *badger.Txn) error {
			for _, key := range keys {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
}

// encodeGen encodes a generation number for the pointer keys.
func encodeGen(gen uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, gen)
	return buf
}

// readGen reads a generation pointer key, returning 0 when unset.
func readGen(tx *badger.Txn, key string) (uint64, error) {
	item, err := tx.Get([]byte(key))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	var gen uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("malformed generation pointer %q", key)
		}
		gen = binary.BigEndian.Uint64(val)
		return nil
	})
	return gen, err
}
