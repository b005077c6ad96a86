package core

import "time"

// TableSnapshot describes a table as confirmed against the live catalog at
// CapturedAt. Snapshots are immutable; the getters return copies.
type TableSnapshot struct {
	qualifier  string
	bareName   string
	columns    []string
	rowCount   int64
	capturedAt time.Time
}

// NewTableSnapshot is called by connectors after catalog confirmation.
// qualifier is empty for engines without one.
func NewTableSnapshot(qualifier, bareName string, columns []string, rowCount int64) *TableSnapshot {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &TableSnapshot{
		qualifier:  qualifier,
		bareName:   bareName,
		columns:    cols,
		rowCount:   rowCount,
		capturedAt: time.Now().UTC(),
	}
}

// BareName returns the table name without qualifier.
func (s *TableSnapshot) BareName() string { return s.bareName }

// Qualifier returns the schema (or database) the table lives in, or "".
func (s *TableSnapshot) Qualifier() string { return s.qualifier }

// QualifiedName returns "qualifier.bare", or the bare name when there is no qualifier.
func (s *TableSnapshot) QualifiedName() string {
	if s.qualifier == "" {
		return s.bareName
	}
	return s.qualifier + "." + s.bareName
}

// ColumnNames returns the column names in ordinal order.
func (s *TableSnapshot) ColumnNames() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// HasColumn reports whether name is one of the table's columns.
// The comparison is exact.
func (s *TableSnapshot) HasColumn(name string) bool {
	for _, c := range s.columns {
		if c == name {
			return true
		}
	}
	return false
}

// RowCount returns the row count taken when the snapshot was captured.
func (s *TableSnapshot) RowCount() int64 { return s.rowCount }

// CapturedAt returns when the snapshot was taken, in UTC.
func (s *TableSnapshot) CapturedAt() time.Time { return s.capturedAt }
