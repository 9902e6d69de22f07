package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fundwatch/navcache/storage"
)

// Scoring weights. Exact and prefix signals combine the way the index
// is meant to be used: full-token hits dominate, pure prefix hits keep
// autocomplete behavior, and verbatim coverage of the whole query earns
// a flat boost.
const (
	exactAndPrefixWeight = 1.5
	exactOnlyWeight      = 1.0
	prefixOnlyScore      = 0.6
	verbatimBoost        = 0.3
)

// QueryTypeFund and QueryTypeFundHouse are the supported query types.
const (
	QueryTypeFund      = storage.IndexFund
	QueryTypeFundHouse = storage.IndexFundHouse
)

// ParseQueryType validates a query type string.
func ParseQueryType(s string) (string, error) {
	switch s {
	case QueryTypeFund, QueryTypeFundHouse:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQueryType, s)
}

// Index provides token scans over the published snapshot's search index.
type Index interface {
	SearchIndex(ctx context.Context, kind, prefix string) ([]storage.TokenMatch, error)
}

// Result is one ranked search match. Key is a scheme name or a fund
// house name depending on the query type.
type Result struct {
	Key   string
	Score float32
}

// Searcher provides ranked fund and fund-house name search.
type Searcher struct {
	index  Index
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher over the given index.
func NewSearcher(index Index, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		index:  index,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to maxHits matches for the query, ranked by
// relevance. queryType is one of QueryTypeFund, QueryTypeFundHouse.
func (s *Searcher) Search(ctx context.Context, queryType, query string, maxHits int) ([]*Result, error) {
	kind, err := ParseQueryType(queryType)
	if err != nil {
		return nil, err
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []*Result{}, nil
	}

	// 1. Scan the index once per query token, splitting candidates into
	// exact-token and prefix-only hits.
	exactHits := make(map[string]int)
	prefixHits := make(map[string]bool)
	for _, token := range tokens {
		matches, err := s.index.SearchIndex(ctx, kind, token)
		if err != nil {
			s.logger.Error("error scanning search index", "kind", kind, "token", token, "err", err)
			return nil, err
		}
		for _, match := range matches {
			if match.Token == token {
				exactHits[match.Key]++
			} else {
				prefixHits[match.Key] = true
			}
		}
	}

	// 2. Combine and score.
	candidates := make(map[string]bool, len(exactHits)+len(prefixHits))
	for key := range exactHits {
		candidates[key] = true
	}
	for key := range prefixHits {
		candidates[key] = true
	}
	if len(candidates) == 0 {
		return []*Result{}, nil
	}

	results := make([]*Result, 0, len(candidates))
	for key := range candidates {
		exact := exactHits[key]
		coverage := float32(exact) / float32(len(tokens))

		var score float32
		switch {
		case exact > 0 && prefixHits[key]:
			score = exactAndPrefixWeight * coverage
		case exact > 0:
			score = exactOnlyWeight * coverage
		default:
			score = prefixOnlyScore
		}

		if containsAllQueryTokens(key, query) {
			score += verbatimBoost
		}

		results = append(results, &Result{Key: key, Score: score})
	}

	// Sort by score descending; ties break alphabetically so identical
	// snapshots always rank identically.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}

	return results, nil
}
