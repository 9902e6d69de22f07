package core

import (
	"errors"
	"testing"
	"time"
)

func testDate(t *testing.T) time.Time {
	t.Helper()
	d, err := ParseNAVDate("14-Aug-2026")
	if err != nil {
		t.Fatalf("ParseNAVDate() error: %v", err)
	}
	return d
}

func validRow() RawRow {
	return RawRow{
		Line:            10,
		SchemeCode:      "119551",
		ISINGrowth:      "INF209KA12Z1",
		ISINDividend:    "INF209KA13Z9",
		SchemeName:      "Alpha Liquid Fund - Growth",
		NAV:             "4821.3097",
		RepurchasePrice: "4820.1000",
		SalePrice:       "4821.3097",
		Date:            "14-Aug-2026",
		FundHouse:       "Alpha Mutual Fund",
		SchemeType:      "Open Ended Schemes",
		SchemeCategory:  "Debt Scheme - Liquid Fund",
	}
}

func TestNormalizeRow(t *testing.T) {
	date := testDate(t)

	tests := []struct {
		name    string
		mutate  func(*RawRow)
		wantErr error
	}{
		{
			name:    "valid row",
			mutate:  func(r *RawRow) {},
			wantErr: nil,
		},
		{
			name:    "missing scheme code",
			mutate:  func(r *RawRow) { r.SchemeCode = "  " },
			wantErr: ErrMissingSchemeCode,
		},
		{
			name:    "missing scheme name",
			mutate:  func(r *RawRow) { r.SchemeName = "" },
			wantErr: ErrMissingSchemeName,
		},
		{
			name:    "missing fund house context",
			mutate:  func(r *RawRow) { r.FundHouse = "" },
			wantErr: ErrMissingFundHouse,
		},
		{
			name:    "garbage nav",
			mutate:  func(r *RawRow) { r.NAV = "12.34.56" },
			wantErr: ErrMalformedValue,
		},
		{
			name:    "negative nav",
			mutate:  func(r *RawRow) { r.NAV = "-3.50" },
			wantErr: ErrMalformedValue,
		},
		{
			name:    "garbage repurchase price",
			mutate:  func(r *RawRow) { r.RepurchasePrice = "abc" },
			wantErr: ErrMalformedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(&row)

			record, err := NormalizeRow(row, date)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NormalizeRow() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeRow() unexpected error: %v", err)
			}
			if record.SchemeCode != "119551" {
				t.Errorf("SchemeCode = %q, want %q", record.SchemeCode, "119551")
			}
			if !record.NAVDate.Equal(date) {
				t.Errorf("NAVDate = %v, want %v", record.NAVDate, date)
			}
		})
	}
}

func TestNormalizeRowExactDecimal(t *testing.T) {
	row := validRow()
	row.NAV = "102.3456"

	record, err := NormalizeRow(row, testDate(t))
	if err != nil {
		t.Fatalf("NormalizeRow() error: %v", err)
	}
	if !record.HasNAV {
		t.Fatal("expected NAV to be present")
	}
	if got := record.NAV.String(); got != "102.3456" {
		t.Errorf("NAV round-trip = %q, want %q", got, "102.3456")
	}
}

func TestNormalizeRowPlaceholderNAV(t *testing.T) {
	placeholders := []string{"", "-", "N.A.", "NA", "n.a.", "N/A", "#N/A", " N.A. "}

	for _, p := range placeholders {
		t.Run("placeholder "+p, func(t *testing.T) {
			row := validRow()
			row.NAV = p

			record, err := NormalizeRow(row, testDate(t))
			if err != nil {
				t.Fatalf("NormalizeRow() error: %v", err)
			}
			if record.HasNAV {
				t.Errorf("placeholder %q parsed as present NAV %s", p, record.NAV)
			}
			if !record.NAV.IsZero() {
				t.Errorf("absent NAV should carry zero value, got %s", record.NAV)
			}
		})
	}
}

func TestNormalizeRowBulletinDateWins(t *testing.T) {
	row := validRow()
	row.Date = "01-Jan-2020" // row disagrees with the bulletin

	date := testDate(t)
	record, err := NormalizeRow(row, date)
	if err != nil {
		t.Fatalf("NormalizeRow() error: %v", err)
	}
	if !record.NAVDate.Equal(date) {
		t.Errorf("NAVDate = %v, want bulletin date %v", record.NAVDate, date)
	}
}

func TestCleanISINPlaceholder(t *testing.T) {
	row := validRow()
	row.ISINDividend = "-"

	record, err := NormalizeRow(row, testDate(t))
	if err != nil {
		t.Fatalf("NormalizeRow() error: %v", err)
	}
	if record.ISINDividend != "" {
		t.Errorf("ISINDividend = %q, want empty", record.ISINDividend)
	}
}
