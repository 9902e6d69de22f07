package bulletin

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/fundwatch/navcache/core"
)

const (
	// fieldSeparator delimits columns in data rows.
	fieldSeparator = "|"

	// rowFieldCount is the fixed column count of a well-formed data row.
	rowFieldCount = 8
)

// Document is the result of parsing one bulletin: the data rows in
// source order with their section context attached, the per-line
// warnings, and the bulletin's date.
type Document struct {
	// Date is the bulletin date, adopted from the first well-formed row.
	// Zero when no row carried a parseable date.
	Date time.Time

	// Rows holds the data rows in source order.
	Rows []core.RawRow

	// Warnings records malformed rows and date inconsistencies that were
	// skipped or noted without failing the parse.
	Warnings []core.Warning
}

// sectionContext is the parser state carried forward across data rows:
// the fund house and scheme category active at the current point of the
// scan. It is explicit state threaded through the pass, not a global.
type sectionContext struct {
	fundHouse      string
	schemeType     string
	schemeCategory string
}

// Parse scans the raw bulletin text line by line and produces its data
// rows paired with the fund-house context active at each point.
//
// Section headers (non-empty lines without the field separator) update
// the context: lines shaped like "Open Ended Schemes(Debt Scheme - ...)"
// set the scheme type and category, any other plain line names the fund
// house for the rows that follow. Blank lines separate sections but do
// not clear the fund house; only a new header replaces it.
//
// Returns ErrStructuralParse when the whole payload contains no row that
// splits into the expected columns.
func Parse(raw string) (*Document, error) {
	doc := &Document{}
	var ctx sectionContext

	scanner := bufio.NewScanner(strings.NewReader(stripBOM(raw)))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			// Separator. Context survives until the next header.
		case strings.Contains(line, fieldSeparator):
			parseDataLine(doc, &ctx, line, lineNo)
		default:
			applyHeader(&ctx, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructuralParse, err)
	}

	if len(doc.Rows) == 0 {
		return nil, ErrStructuralParse
	}
	return doc, nil
}

// parseDataLine splits one pipe-delimited row and appends it to the
// document, or records a warning when the row is malformed.
func parseDataLine(doc *Document, ctx *sectionContext, line string, lineNo int) {
	fields := strings.Split(line, fieldSeparator)

	// The column header repeats the separator but is not data.
	if strings.EqualFold(strings.TrimSpace(fields[0]), "Scheme Code") {
		return
	}

	if len(fields) != rowFieldCount {
		doc.Warnings = append(doc.Warnings, core.Warning{
			Line:   lineNo,
			Kind:   core.WarnMalformedRow,
			Detail: fmt.Sprintf("expected %d fields, got %d", rowFieldCount, len(fields)),
		})
		return
	}

	row := core.RawRow{
		Line:            lineNo,
		SchemeCode:      strings.TrimSpace(fields[0]),
		ISINGrowth:      strings.TrimSpace(fields[1]),
		ISINDividend:    strings.TrimSpace(fields[2]),
		SchemeName:      strings.TrimSpace(fields[3]),
		NAV:             strings.TrimSpace(fields[4]),
		RepurchasePrice: strings.TrimSpace(fields[5]),
		SalePrice:       strings.TrimSpace(fields[6]),
		Date:            strings.TrimSpace(fields[7]),
		FundHouse:       ctx.fundHouse,
		SchemeType:      ctx.schemeType,
		SchemeCategory:  ctx.schemeCategory,
	}

	// The first well-formed row declares the bulletin date; later rows
	// that disagree are noted but the bulletin date wins.
	if rowDate, err := core.ParseNAVDate(row.Date); err == nil {
		if doc.Date.IsZero() {
			doc.Date = rowDate
		} else if !rowDate.Equal(doc.Date) {
			doc.Warnings = append(doc.Warnings, core.Warning{
				Line:   lineNo,
				Kind:   core.WarnDateMismatch,
				Detail: fmt.Sprintf("row date %s differs from bulletin date %s", row.Date, doc.Date.Format(core.NAVDateLayout)),
			})
		}
	}

	doc.Rows = append(doc.Rows, row)
}

// applyHeader interprets a plain separator line as either a scheme
// category header or a fund house name.
func applyHeader(ctx *sectionContext, line string) {
	if schemeType, category, ok := splitSchemeHeader(line); ok {
		ctx.schemeType = schemeType
		ctx.schemeCategory = category
		return
	}
	ctx.fundHouse = line
}

// splitSchemeHeader recognizes category lines like
// "Open Ended Schemes(Debt Scheme - Liquid Fund)".
func splitSchemeHeader(line string) (schemeType, category string, ok bool) {
	open := strings.Index(line, "(")
	if open <= 0 || !strings.HasSuffix(line, ")") {
		return "", "", false
	}
	schemeType = strings.TrimSpace(line[:open])
	if !strings.HasSuffix(schemeType, "Schemes") {
		return "", "", false
	}
	category = strings.TrimSpace(line[open+1 : len(line)-1])
	return schemeType, category, true
}

// stripBOM removes a leading UTF-8 byte-order marker if present.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
