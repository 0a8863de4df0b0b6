package models

import "time"

// -----------------------------------------------------------------------------
// Raw series records
// -----------------------------------------------------------------------------

// MTimeValueRecord is a single sample of a time/value series.
type MTimeValueRecord struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// MOhlcRecord is a single OHLC bar. Bars are passed through as given; the
// low <= open/close <= high relation is not checked.
type MOhlcRecord struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// -----------------------------------------------------------------------------

// RecordKind tells which record collection a series is built from.
type RecordKind int

const (
	KindTimeValue RecordKind = iota
	KindOhlc
)

func (k RecordKind) String() string {
	switch k {
	case KindTimeValue:
		return "time_value"
	case KindOhlc:
		return "ohlc"
	}
	return "unknown"
}

// -----------------------------------------------------------------------------
// Dataset snapshot
// -----------------------------------------------------------------------------

// MDataset is one loaded generation of the backing data. A published dataset
// is never mutated; reloads publish a new value.
type MDataset struct {
	TimeValues []MTimeValueRecord
	Ohlc       []MOhlcRecord
	LoadedAt   time.Time
	Generation uint64
}

// Len returns the number of records of the given kind.
func (d *MDataset) Len(kind RecordKind) int {
	if d == nil {
		return 0
	}
	switch kind {
	case KindTimeValue:
		return len(d.TimeValues)
	case KindOhlc:
		return len(d.Ohlc)
	}
	return 0
}

// IsEmpty reports whether neither collection holds records.
func (d *MDataset) IsEmpty() bool {
	return d.Len(KindTimeValue) == 0 && d.Len(KindOhlc) == 0
}
