package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Field is one named value of a result row.
type Field struct {
	Name  string
	Value any
}

// Row is an ordered projection of a result row.
type Row []Field

// Get returns the value of the named field.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the rendered value of the named field, or "" when absent or NULL.
func (r Row) String(name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Column is a result column with the semantic type used to normalize it.
type Column struct {
	Name string
	Type FieldType
}

// ScanRows reads every row from rows and closes it. Values are normalized
// per projection type so every driver yields the same representation;
// columns missing from projection fall back to their raw value with []byte
// converted to string.
func ScanRows(rows *sqlx.Rows, projection []Column) ([]Row, error) {
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	types := make(map[string]FieldType, len(projection))
	for _, c := range projection {
		types[c.Name] = c.Type
	}

	var out []Row
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(Row, len(names))
		for i, name := range names {
			typ, ok := types[name]
			if !ok {
				typ = -1
			}
			v, err := normalize(raw[i], typ)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			row[i] = Field{Name: name, Value: v}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func normalize(v any, typ FieldType) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch typ {
	case Money, Decimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		if typ == Money {
			return d.StringFixed(2), nil
		}
		return d.String(), nil
	case Duration:
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		return FormatInterval(n), nil
	case Boolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		default:
			n, err := toInt(v)
			if err != nil {
				return nil, err
			}
			return n != 0, nil
		}
	case Integer:
		return toInt(v)
	case Date:
		switch t := v.(type) {
		case time.Time:
			return t.Format("2006-01-02"), nil
		case string:
			if len(t) >= 10 {
				return t[:10], nil
			}
			return t, nil
		}
	case Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t.Format("2006-01-02 15:04:05"), nil
		case string:
			if ts, err := time.Parse(time.RFC3339, t); err == nil {
				return ts.Format("2006-01-02 15:04:05"), nil
			}
			return t, nil
		}
	}
	return v, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.NewFromString(fmt.Sprint(v))
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected %T for integer column", v)
	}
}
