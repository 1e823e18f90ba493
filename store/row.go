package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is how timestamps are written to the store. It is fixed width
// so that text ordering matches chronological ordering.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Row is a single result row addressed by column name.
type Row map[string]any

// String returns the column as text, or "" when it is NULL or missing.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(TimeLayout)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the column as an integer, or 0 when it cannot be read as one.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// Decimal parses a money column. NULL reads as zero.
func (r Row) Decimal(col string) (decimal.Decimal, error) {
	v, ok := r[col]
	if !ok || v == nil {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := d.Scan(v); err != nil {
		return decimal.Zero, fmt.Errorf("column %s: %w", col, err)
	}
	return d, nil
}

// Time parses a timestamp column written with TimeLayout.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{TimeLayout, time.DateTime, time.RFC3339Nano} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
