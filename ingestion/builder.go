package ingestion

import (
	"time"

	"github.com/fundwatch/navcache/core"
	"github.com/fundwatch/navcache/search"
)

// Builder accumulates normalized fund records into a Snapshot. Records
// are keyed by scheme code; when the same code appears twice the first
// occurrence wins and the duplicate is recorded as a warning. Fund
// houses are grouped as records arrive, preserving bulletin order.
type Builder struct {
	snapshot *core.Snapshot
}

// NewBuilder creates a builder for a snapshot dated navDate with the
// given raw-bulletin checksum.
func NewBuilder(navDate time.Time, checksum core.Checksum) *Builder {
	return &Builder{
		snapshot: &core.Snapshot{
			NAVDate:  navDate,
			Checksum: checksum,
			Records:  make(map[string]*core.FundRecord),
			Houses:   make(map[string]*core.FundHouse),
		},
	}
}

// Add appends a normalized record. Returns false when the scheme code
// was already present and the record was dropped as a duplicate.
func (b *Builder) Add(line int, record *core.FundRecord) bool {
	snap := b.snapshot

	if _, exists := snap.Records[record.SchemeCode]; exists {
		snap.Warnings = append(snap.Warnings, core.Warning{
			Line:   line,
			Kind:   core.WarnDuplicateKey,
			Detail: "duplicate scheme code " + record.SchemeCode,
		})
		return false
	}

	snap.Records[record.SchemeCode] = record
	snap.Order = append(snap.Order, record.SchemeCode)

	house, exists := snap.Houses[record.FundHouse]
	if !exists {
		house = &core.FundHouse{Name: record.FundHouse}
		snap.Houses[record.FundHouse] = house
		snap.HouseOrder = append(snap.HouseOrder, record.FundHouse)
	}
	house.SchemeCodes = append(house.SchemeCodes, record.SchemeCode)

	return true
}

// AddWarning records a non-fatal anomaly observed while producing
// records for this snapshot.
func (b *Builder) AddWarning(w core.Warning) {
	b.snapshot.Warnings = append(b.snapshot.Warnings, w)
}

// Len reports the number of records accumulated so far.
func (b *Builder) Len() int {
	return len(b.snapshot.Records)
}

// Build finalizes the snapshot, deriving the search corpus from scheme
// and fund house names. The builder must not be reused afterwards.
func (b *Builder) Build() *core.Snapshot {
	snap := b.snapshot

	snap.FundCorpus = make(map[string][]string, len(snap.Records))
	for _, code := range snap.Order {
		record := snap.Records[code]
		snap.FundCorpus[record.SchemeName] = search.Tokenize(record.SchemeName)
	}

	snap.HouseCorpus = make(map[string][]string, len(snap.Houses))
	for _, name := range snap.HouseOrder {
		snap.HouseCorpus[name] = search.Tokenize(name)
	}

	return snap
}
