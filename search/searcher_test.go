package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundwatch/navcache/storage"
)

// fakeIndex serves token scans from an in-memory corpus, mirroring how
// the storage layer indexes names: one entry per (token, key) pair,
// prefix-matched on the token.
type fakeIndex struct {
	corpus map[string][]string // kind -> names
	err    error
}

func (f *fakeIndex) SearchIndex(ctx context.Context, kind, prefix string) ([]storage.TokenMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []storage.TokenMatch
	for _, name := range f.corpus[kind] {
		for _, token := range Tokenize(name) {
			if strings.HasPrefix(token, prefix) {
				out = append(out, storage.TokenMatch{Token: token, Key: name})
			}
		}
	}
	return out, nil
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{corpus: map[string][]string{
		QueryTypeFund: {
			"Alpha Mutual Fund - Liquid Plan - Growth",
			"Alpha Mutual Fund - Liquid Plan - IDCW",
			"Beta Bluechip Equity - Direct - Growth",
			"Gamma Gilt Scheme - Regular",
		},
		QueryTypeFundHouse: {
			"Alpha MF",
			"Beta MF",
		},
	}}
}

func TestNewSearcherRequiresIndex(t *testing.T) {
	_, err := NewSearcher(nil)
	assert.ErrorIs(t, err, ErrIndexRequired)
}

func TestSearchInvalidQueryType(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "scheme", "alpha", 10)
	assert.ErrorIs(t, err, ErrInvalidQueryType)
}

func TestSearchFundHouse(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	results, err := s.Search(context.Background(), QueryTypeFundHouse, "Alpha", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alpha MF", results[0].Key)
}

func TestSearchExactOutranksPrefix(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	// "gilt" hits Gamma exactly; "g" alone would be a prefix everywhere,
	// but full-token coverage must put the gilt scheme first.
	results, err := s.Search(context.Background(), QueryTypeFund, "gilt scheme", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Gamma Gilt Scheme - Regular", results[0].Key)
	for _, r := range results[1:] {
		assert.Less(t, r.Score, results[0].Score)
	}
}

func TestSearchVerbatimBoost(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	results, err := s.Search(context.Background(), QueryTypeFund, "alpha liquid growth", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Both liquid plans match every token, but only the Growth plan
	// contains the query verbatim.
	assert.Equal(t, "Alpha Mutual Fund - Liquid Plan - Growth", results[0].Key)
}

func TestSearchPrefixMatch(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	results, err := s.Search(context.Background(), QueryTypeFund, "bluech", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Beta Bluechip Equity - Direct - Growth", results[0].Key)
	assert.InDelta(t, prefixOnlyScore, results[0].Score, 0.001)
}

func TestSearchMaxHits(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	results, err := s.Search(context.Background(), QueryTypeFund, "alpha beta gamma", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	results, err := s.Search(context.Background(), QueryTypeFund, "  the of  ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	s, err := NewSearcher(newFakeIndex())
	require.NoError(t, err)

	// Both Alpha liquid plans tie on every signal except the verbatim
	// boost; run twice and require identical ordering.
	first, err := s.Search(context.Background(), QueryTypeFund, "liquid", 10)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), QueryTypeFund, "liquid", 10)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
	}
}

func TestSearchIndexError(t *testing.T) {
	idx := newFakeIndex()
	idx.err = errors.New("backend closed")
	s, err := NewSearcher(idx)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), QueryTypeFund, "alpha", 10)
	assert.Error(t, err)
}
