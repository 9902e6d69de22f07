package navcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundwatch/navcache/search"
	"github.com/fundwatch/navcache/storage"
)

const facadeBulletin = `Scheme Code|ISIN Div Payout/ ISIN Growth|ISIN Div Reinvestment|Scheme Name|Net Asset Value|Repurchase Price|Sale Price|Date

Open Ended Schemes(Debt Scheme - Liquid Fund)

Alpha Mutual Fund

119551|INF209KA12Z1|-|Alpha Liquid Fund - Growth|4821.3097|4820.1000|4821.3097|27-Aug-2026
119552|-|INF209KA13Z9|Alpha Liquid Fund - Dividend|1002.5000|1001.9000|1002.5000|27-Aug-2026

Open Ended Schemes(Equity Scheme - Large Cap Fund)

Beta Mutual Fund

120002|INF846K01X00|-|Beta Bluechip Fund - Growth|88.1200|87.9000|88.1200|27-Aug-2026
`

type fixedSource struct {
	text string
}

func (s *fixedSource) Fetch(ctx context.Context, date time.Time) (string, error) {
	return s.text, nil
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase("", WithInMemory(), WithSource(&fixedSource{text: facadeBulletin}))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestDatabaseEndToEnd(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	report, err := db.Ingest(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 3, report.RecordCount)

	record, err := db.GetFund(ctx, "119551")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Liquid Fund - Growth", record.SchemeName)
	assert.Equal(t, "4821.3097", record.NAV.String())
	assert.Equal(t, "Debt Scheme - Liquid Fund", record.SchemeCategory)

	// Name lookup resolves to the same record.
	byName, err := db.GetFund(ctx, "Alpha Liquid Fund - Growth")
	require.NoError(t, err)
	assert.Equal(t, record.SchemeCode, byName.SchemeCode)

	names, err := db.GetAllFundNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 3)

	house, err := db.GetFundHouse(ctx, "Alpha Mutual Fund")
	require.NoError(t, err)
	require.Len(t, house, 2)
	assert.Equal(t, "119551", house[0].SchemeCode)

	results, err := db.Search(ctx, search.QueryTypeFundHouse, "beta", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Beta Mutual Fund", results[0].Key)

	results, err = db.Search(ctx, search.QueryTypeFund, "bluechip", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Beta Bluechip Fund - Growth", results[0].Key)

	status, err := db.LastStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Generation, status.Generation)
}

func TestReingestKeepsSearchRankingStable(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	_, err := db.Ingest(ctx, date)
	require.NoError(t, err)
	first, err := db.Search(ctx, search.QueryTypeFund, "alpha liquid", 10)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A second ingest of the identical bulletin swaps in a new generation;
	// ranked results must come back key-for-key, score-for-score the same.
	_, err = db.Ingest(ctx, date)
	require.NoError(t, err)
	second, err := db.Search(ctx, search.QueryTypeFund, "alpha liquid", 10)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestDatabaseBeforeFirstIngest(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	_, err := db.GetFund(ctx, "119551")
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)

	names, err := db.GetAllFundNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = db.Manifest(ctx)
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)
}
