package search

import "strings"

// Stop words to filter out of name tokens and queries. Kept short:
// fund names are mostly content words and "fund" itself must stay
// searchable.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"for": true, "in": true,
}

// Tokenize splits name text into lowercase tokens, trims punctuation,
// and removes stop words. The same tokenizer feeds the index build and
// query evaluation, so matching is symmetric.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}
		return true
	})

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(word)
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}
	return filtered
}

// containsAllQueryTokens checks if every query token appears verbatim in
// the candidate name.
func containsAllQueryTokens(name, query string) bool {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return false
	}

	nameTokens := Tokenize(name)
	nameSet := make(map[string]bool, len(nameTokens))
	for _, token := range nameTokens {
		nameSet[token] = true
	}

	for _, token := range queryTokens {
		if !nameSet[token] {
			return false
		}
	}
	return true
}
