// Package bulletin fetches and parses the daily NAV bulletin.
//
// The bulletin is a semi-structured pipe-delimited text dump grouped by
// fund house. Data rows carry a fixed column order (scheme code, ISIN
// growth, ISIN dividend, scheme name, NAV, repurchase price, sale price,
// date); fund-house names and scheme-category headers appear as plain
// separator lines between groups of rows.
//
// Parse performs a single pass over the text, threading the active
// fund-house and scheme-category context onto every emitted row. Rows
// that cannot be split into the expected columns are recorded as
// warnings and skipped; a bulletin with zero parsable rows is a
// structural failure.
package bulletin
