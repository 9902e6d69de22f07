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


package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NAVDateLayout is the date format used by bulletin rows ("02-Jan-2006").
const NAVDateLayout = "02-Jan-2006"

// RawRow is one data row as split from the bulletin text, together with
// the section context that was active when the row was read.
type RawRow struct {
	Line            int // 1-based line number in the bulletin
	SchemeCode      string
	ISINGrowth      string
	ISINDividend    string
	SchemeName      string
	NAV             string
	RepurchasePrice string
	SalePrice       string
	Date            string
	FundHouse       string
	SchemeType      string
	SchemeCategory  string
}

// ParseNAVDate parses a bulletin date field.
func ParseNAVDate(s string) (time.Time, error) {
	return time.Parse(NAVDateLayout, strings.TrimSpace(s))
}

// notAvailableTokens are the placeholder spellings bulletins use for a
// value that was not published. They normalize to an absent value,
// never to zero.
var notAvailableTokens = map[string]bool{
	"":     true,
	"-":    true,
	"N.A.": true,
	"N.A":  true,
	"NA":   true,
	"N/A":  true,
	"#N/A": true,
}

func isNotAvailable(s string) bool {
	return notAvailableTokens[strings.ToUpper(strings.TrimSpace(s))]
}

// parsePrice parses an optional decimal field.
// Returns ok=false for not-available placeholders, an error for values
// that are present but not valid non-negative decimals.
func parsePrice(field, s string) (decimal.Decimal, bool, error) {
	if isNotAvailable(s) {
		return decimal.Decimal{}, false, nil
	}
	// Some bulletins group digits with commas.
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("%w: %s %q", ErrMalformedValue, field, s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, false, fmt.Errorf("%w: %s %q is negative", ErrMalformedValue, field, s)
	}
	return d, true, nil
}

// NormalizeRow validates and cleans one raw bulletin row into a FundRecord.
//
// Rules:
//   - SchemeCode and SchemeName are required (non-empty after trim)
//   - a row must carry fund house context
//   - NAV, repurchase and sale prices normalize placeholders to absent values
//   - numeric fields that fail to parse reject the row with ErrMalformedValue
//   - NAVDate is the bulletin's single date, never a per-row value
//
// NOT validated here:
//   - duplicate scheme codes (detected by the snapshot builder, which sees
//     the whole sequence)
func NormalizeRow(row RawRow, bulletinDate time.Time) (*FundRecord, error) {
	code := strings.TrimSpace(row.SchemeCode)
	if code == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingSchemeCode)
	}

	name := strings.TrimSpace(row.SchemeName)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingSchemeName)
	}

	house := strings.TrimSpace(row.FundHouse)
	if house == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingFundHouse)
	}

	record := &FundRecord{
		SchemeCode:     code,
		SchemeName:     name,
		ISINGrowth:     cleanISIN(row.ISINGrowth),
		ISINDividend:   cleanISIN(row.ISINDividend),
		NAVDate:        bulletinDate,
		FundHouse:      house,
		SchemeType:     strings.TrimSpace(row.SchemeType),
		SchemeCategory: strings.TrimSpace(row.SchemeCategory),
	}

	var err error
	if record.NAV, record.HasNAV, err = parsePrice("nav", row.NAV); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if record.Repurchase, record.HasRepurchase, err = parsePrice("repurchase price", row.RepurchasePrice); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if record.Sale, record.HasSale, err = parsePrice("sale price", row.SalePrice); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return record, nil
}

// cleanISIN trims an ISIN field and maps placeholders to empty.
func cleanISIN(s string) string {
	if isNotAvailable(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
