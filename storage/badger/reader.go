package badger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/fundwatch/navcache/core"
	"github.com/fundwatch/navcache/storage"
)

// Reader implements storage.SnapshotReader for BadgerDB.
//
// Every operation resolves the current-generation pointer and reads the
// generation's keys inside one read transaction, so a lookup always sees
// exactly one published snapshot even while a publish is in flight.
type Reader struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.SnapshotReader = (*Reader)(nil)

// NewReader creates a snapshot reader on the given backend.
func NewReader(backend *Backend) *Reader {
	return &Reader{
		backend: backend,
		logger:  slog.Default(),
	}
}

// currentGen resolves the served generation within tx.
// Returns storage.ErrNoSnapshot when nothing has been published.
func currentGen(tx *badger.Txn) (uint64, error) {
	gen, err := readGen(tx, currentGenKey)
	if err != nil {
		return 0, err
	}
	if gen == 0 {
		return 0, storage.ErrNoSnapshot
	}
	return gen, nil
}

// readFundRecord reads and decodes one fund record key.
func readFundRecord(tx *badger.Txn, key []byte) (*core.FundRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var record *core.FundRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalFundRecord(val)
		return err
	})
	return record, err
}

// GetFund implements storage.SnapshotReader. The key may be a scheme
// code or an exact scheme name; codes are tried first.
func (r *Reader) GetFund(ctx context.Context, key string) (*core.FundRecord, error) {
	var record *core.FundRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := currentGen(tx)
		if err != nil {
			return err
		}

		record, err = readFundRecord(tx, makeFundKey(gen, key))
		if err == nil || err != storage.ErrNotFound {
			return err
		}

		// Fall back to the scheme-name index.
		item, err := tx.Get(makeNameKey(gen, key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		var code string
		if err := item.Value(func(val []byte) error {
			code = string(val)
			return nil
		}); err != nil {
			return err
		}

		record, err = readFundRecord(tx, makeFundKey(gen, code))
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetAllFundNames implements storage.SnapshotReader. Names come back
// sorted because the name index iterates lexicographically.
func (r *Reader) GetAllFundNames(ctx context.Context) ([]string, error) {
	names := []string{}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := currentGen(tx)
		if err != nil {
			return err
		}

		prefix := makeNamePrefix(gen)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			names = append(names, string(iter.Item().Key()[len(prefix):]))
		}
		return nil
	}, false)

	if err != nil {
		if err == storage.ErrNoSnapshot {
			return []string{}, nil
		}
		return nil, err
	}
	return names, nil
}

// GetFundHouse implements storage.SnapshotReader. Records come back in
// bulletin order, as recorded in the grouping.
func (r *Reader) GetFundHouse(ctx context.Context, name string) ([]*core.FundRecord, error) {
	var records []*core.FundRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := currentGen(tx)
		if err != nil {
			return err
		}

		item, err := tx.Get(makeHouseKey(gen, name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		var house *core.FundHouse
		if err := item.Value(func(val []byte) error {
			var err error
			house, err = storage.UnmarshalFundHouse(val)
			return err
		}); err != nil {
			return err
		}

		records = make([]*core.FundRecord, 0, len(house.SchemeCodes))
		for _, code := range house.SchemeCodes {
			record, err := readFundRecord(tx, makeFundKey(gen, code))
			if err != nil {
				if err == storage.ErrNotFound {
					// Grouping and records are written together; a gap
					// would mean a torn snapshot.
					r.logger.Warn("fund house references missing record",
						"house", name, "schemeCode", code)
					continue
				}
				return err
			}
			records = append(records, record)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return records, nil
}

// SearchIndex implements storage.SnapshotReader.
func (r *Reader) SearchIndex(ctx context.Context, kind, prefix string) ([]storage.TokenMatch, error) {
	var segment string
	switch kind {
	case storage.IndexFund:
		segment = idxFundSegment
	case storage.IndexFundHouse:
		segment = idxHouseSegment
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}

	var matches []storage.TokenMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := currentGen(tx)
		if err != nil {
			return err
		}

		scanPrefix := makeIndexPrefix(gen, segment, prefix)
		segmentPrefix := makeIndexPrefix(gen, segment, "")

		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			token, ok := splitIndexEntry(item.Key(), segmentPrefix)
			if !ok {
				continue
			}
			var key string
			if err := item.Value(func(val []byte) error {
				key = string(val)
				return nil
			}); err != nil {
				return err
			}
			matches = append(matches, storage.TokenMatch{Token: token, Key: key})
		}
		return nil
	}, false)

	if err != nil {
		if err == storage.ErrNoSnapshot {
			return nil, nil
		}
		return nil, err
	}
	return matches, nil
}

// Manifest implements storage.SnapshotReader.
func (r *Reader) Manifest(ctx context.Context) (*core.SnapshotManifest, error) {
	var manifest *core.SnapshotManifest

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := currentGen(tx)
		if err != nil {
			return err
		}

		item, err := tx.Get(makeManifestKey(gen))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNoSnapshot
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			manifest, err = storage.UnmarshalManifest(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// Status implements storage.SnapshotReader.
func (r *Reader) Status(ctx context.Context) (*core.IngestStatus, error) {
	var status *core.IngestStatus

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(ingestStatusKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			status, err = storage.UnmarshalStatus(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return status, nil
}
