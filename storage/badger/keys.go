package badger

import (
	"fmt"
	"strings"
)

// Key prefixes. Everything belonging to a snapshot is tagged with its
// generation so a whole snapshot can be staged, served, or reclaimed by
// prefix. The current-generation pointer is the only key readers resolve
// before reaching into a generation's namespace.
const (
	snapPrefix      = "snap"
	fundSegment     = "f"  // fund record by scheme code
	nameSegment     = "n"  // scheme name -> scheme code
	houseSegment    = "h"  // fund house grouping by name
	idxFundSegment  = "xf" // search entry: token -> scheme name
	idxHouseSegment = "xh" // search entry: token -> fund house name
	manifestSegment = "m"

	currentGenKey   = "curgen"
	supersededKey   = "supgen"
	generationSeq   = "genseq"
	ingestStatusKey = "ingstat"
)

// makeGenPrefix generates the namespace prefix for a generation.
// The generation is fixed-width hex so prefix scans match exactly one
// generation and keys sort by generation age.
func makeGenPrefix(gen uint64) string {
	return fmt.Sprintf("%s:%016x:", snapPrefix, gen)
}

// makeFundKey generates the primary record key for a scheme code.
func makeFundKey(gen uint64, schemeCode string) []byte {
	return []byte(makeGenPrefix(gen) + fundSegment + ":" + schemeCode)
}

// makeNameKey generates the scheme-name index key. Scheme names sort
// lexicographically under this prefix, which is what GetAllFundNames
// iterates.
func makeNameKey(gen uint64, schemeName string) []byte {
	return []byte(makeGenPrefix(gen) + nameSegment + ":" + schemeName)
}

// makeNamePrefix generates the scan prefix for the scheme-name index.
func makeNamePrefix(gen uint64) []byte {
	return []byte(makeGenPrefix(gen) + nameSegment + ":")
}

// makeHouseKey generates the grouping key for a fund house.
func makeHouseKey(gen uint64, houseName string) []byte {
	return []byte(makeGenPrefix(gen) + houseSegment + ":" + houseName)
}

// makeIndexKey generates a search-index entry key.
// Format: <gen-prefix><segment>:<token>:<key>. Tokens never contain the
// separator (the tokenizer strips punctuation), so the token is the part
// up to the first separator after the scan prefix.
func makeIndexKey(gen uint64, segment, token, key string) []byte {
	return []byte(makeGenPrefix(gen) + segment + ":" + token + ":" + key)
}

// makeIndexPrefix generates the scan prefix for search-index entries
// whose token starts with tokenPrefix.
func makeIndexPrefix(gen uint64, segment, tokenPrefix string) []byte {
	return []byte(makeGenPrefix(gen) + segment + ":" + tokenPrefix)
}

// splitIndexEntry extracts the token from a full index key given the
// segment scan prefix (makeIndexPrefix with an empty token prefix).
func splitIndexEntry(fullKey []byte, segmentPrefix []byte) (token string, ok bool) {
	rest := strings.TrimPrefix(string(fullKey), string(segmentPrefix))
	if rest == string(fullKey) {
		return "", false
	}
	token, _, ok = strings.Cut(rest, ":")
	return token, ok
}

// makeManifestKey generates the manifest key for a generation.
func makeManifestKey(gen uint64) []byte {
	return []byte(makeGenPrefix(gen) + manifestSegment)
}
