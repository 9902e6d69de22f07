package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/shopspring/decimal"
)

// Checksum is a 64-bit content fingerprint for bulletin payloads.
// Two byte-identical bulletins always produce the same checksum.
type Checksum uint64

// ChecksumFromContent computes a deterministic checksum from raw text
// using BLAKE2b hashing.
func ChecksumFromContent(text string) Checksum {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Checksum(binary.LittleEndian.Uint64(sum))
}

// FundRecord represents one scheme row from a NAV bulletin.
// SchemeCode is the stable identity; it never changes once assigned.
// Growth and Dividend variants of a scheme are separate records with
// distinct scheme codes.
type FundRecord struct {
	SchemeCode     string
	SchemeName     string
	ISINGrowth     string // may be empty
	ISINDividend   string // may be empty
	NAV            decimal.Decimal
	HasNAV         bool // false when the bulletin reported NAV as not available
	Repurchase     decimal.Decimal
	HasRepurchase  bool
	Sale           decimal.Decimal
	HasSale        bool
	NAVDate        time.Time // the bulletin's date, not a per-row value
	FundHouse      string    // name of the owning fund house
	SchemeType     string    // e.g. "Open Ended Schemes"
	SchemeCategory string    // e.g. "Debt Scheme - Liquid Fund"
}

// FundHouse groups the schemes a single asset management company
// published in one bulletin. SchemeCodes preserves bulletin order.
type FundHouse struct {
	Name        string
	SchemeCodes []string
}

// Snapshot is the unit of consistency: every record and grouping derived
// from one bulletin fetch. It is assembled fully in memory and published
// atomically; it is superseded, never merged, by the next bulletin.
type Snapshot struct {
	NAVDate    time.Time
	Checksum   Checksum
	Records    map[string]*FundRecord // keyed by scheme code
	Order      []string               // scheme codes in bulletin order
	Houses     map[string]*FundHouse  // keyed by fund house name
	HouseOrder []string               // fund house names in bulletin order

	// Warnings aggregates the per-row problems recorded while the
	// snapshot was assembled.
	Warnings []Warning

	// Search corpus: tokenized name text for every scheme and fund house,
	// rebuilt fully on every snapshot, never patched incrementally.
	FundCorpus  map[string][]string // scheme name → tokens
	HouseCorpus map[string][]string // fund house name → tokens
}

// SnapshotManifest describes a published generation.
type SnapshotManifest struct {
	Generation   uint64
	NAVDate      time.Time
	Checksum     Checksum
	RecordCount  int
	HouseCount   int
	WarningCount int
	PublishedAt  time.Time
}

// Run states recorded in IngestStatus.
const (
	RunStateRunning = "running"
	RunStateSuccess = "success"
	RunStateFailed  = "failed"
)

// IngestStatus is the persisted outcome of the most recent ingestion run.
type IngestStatus struct {
	State        string // running, success, failed
	Stage        string // last stage entered; on failure, the failing stage
	NAVDate      time.Time
	Generation   uint64
	Checksum     Checksum
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        string // empty unless State == failed
	RecordCount  int
	WarningCount int
}

// Warning kinds aggregated into a run's warning summary.
const (
	WarnMalformedRow   = "malformed_row"
	WarnMalformedValue = "malformed_value"
	WarnDuplicateKey   = "duplicate_key"
	WarnDateMismatch   = "date_mismatch"
)

// Warning records a per-row problem that skipped the row (or noted an
// inconsistency) without failing the run.
type Warning struct {
	Line   int
	Kind   string
	Detail string
}
