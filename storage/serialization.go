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


package storage

import (
	"fmt"
	"time"

	"github.com/fundwatch/navcache/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/shopspring/decimal"
)

// Values are encoded with hand-composed MUS serializers. Decimals are
// stored in their exact string form so NAV values round-trip without
// precision loss; timestamps are stored as Unix microseconds.

func marshalDecimal(d decimal.Decimal, bs []byte) int {
	return ord.String.Marshal(d.String(), bs)
}

func unmarshalDecimal(bs []byte) (decimal.Decimal, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return decimal.Decimal{}, n, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, n, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return d, n, nil
}

func sizeDecimal(d decimal.Decimal) int {
	return ord.String.Size(d.String())
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalStrings(ss []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(ss), bs)
	for _, s := range ss {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (ss []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrSerializationFailed
	}
	ss = make([]string, 0, length)
	for i := 0; i < length; i++ {
		var (
			s  string
			n1 int
		)
		s, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		ss = append(ss, s)
	}
	return ss, n, nil
}

func sizeStrings(ss []string) (size int) {
	size = varint.Int.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

// fundRecordSer serializes core.FundRecord.
type fundRecordSer struct{}

// FundRecordMUS is the serializer for stored fund records.
var FundRecordMUS = fundRecordSer{}

func (fundRecordSer) Marshal(v core.FundRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.SchemeCode, bs)
	n += ord.String.Marshal(v.SchemeName, bs[n:])
	n += ord.String.Marshal(v.ISINGrowth, bs[n:])
	n += ord.String.Marshal(v.ISINDividend, bs[n:])
	n += marshalDecimal(v.NAV, bs[n:])
	n += ord.Bool.Marshal(v.HasNAV, bs[n:])
	n += marshalDecimal(v.Repurchase, bs[n:])
	n += ord.Bool.Marshal(v.HasRepurchase, bs[n:])
	n += marshalDecimal(v.Sale, bs[n:])
	n += ord.Bool.Marshal(v.HasSale, bs[n:])
	n += marshalTime(v.NAVDate, bs[n:])
	n += ord.String.Marshal(v.FundHouse, bs[n:])
	n += ord.String.Marshal(v.SchemeType, bs[n:])
	n += ord.String.Marshal(v.SchemeCategory, bs[n:])
	return n
}

func (fundRecordSer) Unmarshal(bs []byte) (v core.FundRecord, n int, err error) {
	var n1 int
	if v.SchemeCode, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SchemeName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ISINGrowth, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ISINDividend, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.NAV, n1, err = unmarshalDecimal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.HasNAV, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Repurchase, n1, err = unmarshalDecimal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.HasRepurchase, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Sale, n1, err = unmarshalDecimal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.HasSale, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.NAVDate, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FundHouse, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SchemeType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SchemeCategory, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (fundRecordSer) Size(v core.FundRecord) (size int) {
	size = ord.String.Size(v.SchemeCode)
	size += ord.String.Size(v.SchemeName)
	size += ord.String.Size(v.ISINGrowth)
	size += ord.String.Size(v.ISINDividend)
	size += sizeDecimal(v.NAV)
	size += ord.Bool.Size(v.HasNAV)
	size += sizeDecimal(v.Repurchase)
	size += ord.Bool.Size(v.HasRepurchase)
	size += sizeDecimal(v.Sale)
	size += ord.Bool.Size(v.HasSale)
	size += sizeTime(v.NAVDate)
	size += ord.String.Size(v.FundHouse)
	size += ord.String.Size(v.SchemeType)
	size += ord.String.Size(v.SchemeCategory)
	return size
}

// fundHouseSer serializes core.FundHouse.
type fundHouseSer struct{}

// FundHouseMUS is the serializer for stored fund house groupings.
var FundHouseMUS = fundHouseSer{}

func (fundHouseSer) Marshal(v core.FundHouse, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += marshalStrings(v.SchemeCodes, bs[n:])
	return n
}

func (fundHouseSer) Unmarshal(bs []byte) (v core.FundHouse, n int, err error) {
	var n1 int
	if v.Name, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SchemeCodes, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (fundHouseSer) Size(v core.FundHouse) int {
	return ord.String.Size(v.Name) + sizeStrings(v.SchemeCodes)
}

// manifestSer serializes core.SnapshotManifest.
type manifestSer struct{}

// ManifestMUS is the serializer for snapshot manifests.
var ManifestMUS = manifestSer{}

func (manifestSer) Marshal(v core.SnapshotManifest, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.Generation, bs)
	n += marshalTime(v.NAVDate, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Checksum), bs[n:])
	n += varint.Int.Marshal(v.RecordCount, bs[n:])
	n += varint.Int.Marshal(v.HouseCount, bs[n:])
	n += varint.Int.Marshal(v.WarningCount, bs[n:])
	n += marshalTime(v.PublishedAt, bs[n:])
	return n
}

func (manifestSer) Unmarshal(bs []byte) (v core.SnapshotManifest, n int, err error) {
	var n1 int
	if v.Generation, n1, err = varint.Uint64.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.NAVDate, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var checksum uint64
	if checksum, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Checksum = core.Checksum(checksum)
	n += n1
	if v.RecordCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.HouseCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.WarningCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PublishedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (manifestSer) Size(v core.SnapshotManifest) (size int) {
	size = varint.Uint64.Size(v.Generation)
	size += sizeTime(v.NAVDate)
	size += varint.Uint64.Size(uint64(v.Checksum))
	size += varint.Int.Size(v.RecordCount)
	size += varint.Int.Size(v.HouseCount)
	size += varint.Int.Size(v.WarningCount)
	size += sizeTime(v.PublishedAt)
	return size
}

// statusSer serializes core.IngestStatus.
type statusSer struct{}

// StatusMUS is the serializer for ingestion status records.
var StatusMUS = statusSer{}

func (statusSer) Marshal(v core.IngestStatus, bs []byte) (n int) {
	n = ord.String.Marshal(v.State, bs)
	n += ord.String.Marshal(v.Stage, bs[n:])
	n += marshalTime(v.NAVDate, bs[n:])
	n += varint.Uint64.Marshal(v.Generation, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Checksum), bs[n:])
	n += marshalTime(v.StartedAt, bs[n:])
	n += marshalTime(v.FinishedAt, bs[n:])
	n += ord.String.Marshal(v.Error, bs[n:])
	n += varint.Int.Marshal(v.RecordCount, bs[n:])
	n += varint.Int.Marshal(v.WarningCount, bs[n:])
	return n
}

func (statusSer) Unmarshal(bs []byte) (v core.IngestStatus, n int, err error) {
	var n1 int
	if v.State, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Stage, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.NAVDate, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Generation, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var checksum uint64
	if checksum, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Checksum = core.Checksum(checksum)
	n += n1
	if v.StartedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FinishedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Error, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.RecordCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.WarningCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (statusSer) Size(v core.IngestStatus) (size int) {
	size = ord.String.Size(v.State)
	size += ord.String.Size(v.Stage)
	size += sizeTime(v.NAVDate)
	size += varint.Uint64.Size(v.Generation)
	size += varint.Uint64.Size(uint64(v.Checksum))
	size += sizeTime(v.StartedAt)
	size += sizeTime(v.FinishedAt)
	size += ord.String.Size(v.Error)
	size += varint.Int.Size(v.RecordCount)
	size += varint.Int.Size(v.WarningCount)
	return size
}

// MarshalFundRecord serializes a FundRecord to bytes.
func MarshalFundRecord(record *core.FundRecord) []byte {
	buf := make([]byte, FundRecordMUS.Size(*record))
	FundRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalFundRecord deserializes a FundRecord from bytes.
func UnmarshalFundRecord(data []byte) (*core.FundRecord, error) {
	record, _, err := FundRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalFundHouse serializes a FundHouse to bytes.
func MarshalFundHouse(house *core.FundHouse) []byte {
	buf := make([]byte, FundHouseMUS.Size(*house))
	FundHouseMUS.Marshal(*house, buf)
	return buf
}

// UnmarshalFundHouse deserializes a FundHouse from bytes.
func UnmarshalFundHouse(data []byte) (*core.FundHouse, error) {
	house, _, err := FundHouseMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &house, nil
}

// MarshalManifest serializes a SnapshotManifest to bytes.
func MarshalManifest(manifest *core.SnapshotManifest) []byte {
	buf := make([]byte, ManifestMUS.Size(*manifest))
	ManifestMUS.Marshal(*manifest, buf)
	return buf
}

// UnmarshalManifest deserializes a SnapshotManifest from bytes.
func UnmarshalManifest(data []byte) (*core.SnapshotManifest, error) {
	manifest, _, err := ManifestMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &manifest, nil
}

// MarshalStatus serializes an IngestStatus to bytes.
func MarshalStatus(status *core.IngestStatus) []byte {
	buf := make([]byte, StatusMUS.Size(*status))
	StatusMUS.Marshal(*status, buf)
	return buf
}

// UnmarshalStatus deserializes an IngestStatus from bytes.
func UnmarshalStatus(data []byte) (*core.IngestStatus, error) {
	status, _, err := StatusMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
