package models

const (
	// PointerField is the log store's internal result-set cursor. It is
	// dropped during normalization and never reaches analysis.
	PointerField = "@ptr"

	// TimestampField carries the record timestamp in normalized records.
	TimestampField = "@timestamp"
)

// LogRecord is a normalized log row: field name to string value, with the
// store's internal fields removed.
type LogRecord map[string]string

// Timestamp returns the record timestamp field, or "" when absent.
func (r LogRecord) Timestamp() string {
	return r[TimestampField]
}

// NormalizeRow converts a raw result row into a LogRecord, excluding the
// internal pointer field. Normalizing an already-normalized projection
// yields the same record.
func NormalizeRow(row RawRow) LogRecord {
	record := make(LogRecord, len(row))
	for _, f := range row {
		if f.Field == PointerField {
			continue
		}
		record[f.Field] = f.Value
	}
	return record
}

// NormalizeRows normalizes a full result set, preserving order.
func NormalizeRows(rows []RawRow) []LogRecord {
	records := make([]LogRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, NormalizeRow(row))
	}
	return records
}
