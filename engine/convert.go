package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"property-desk/validator"

	"github.com/shopspring/decimal"
)

// Parse converts raw prompt answers into typed values. Blank optional answers
// become Unspecified; blank required answers and malformed values fail with a
// ValidationError naming the field. Nothing is returned on failure, so callers
// never merge a partially parsed set.
func Parse(v *validator.Validator, params []Param, raw map[string]string) (FieldValues, error) {
	values := make(FieldValues, len(params))
	for _, p := range params {
		text := strings.TrimSpace(raw[p.Name])
		if text == "" {
			if p.Required {
				return nil, &ValidationError{Field: p.Name, Message: fmt.Sprintf("%s is required", p.Name)}
			}
			values[p.Name] = Unspecified
			continue
		}

		if p.Format != "" && v != nil {
			if err := v.VarField(p.Name, text, p.Format); err != nil {
				return nil, toValidationError(p.Name, err)
			}
		}

		parsed, err := convert(p, text)
		if err != nil {
			return nil, err
		}
		values[p.Name] = Set(parsed)
	}
	return values, nil
}

func toValidationError(field string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field, Message: verrs[0].Message}
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

func convert(p Param, text string) (any, error) {
	invalid := func(expect string) error {
		return &ValidationError{Field: p.Name, Message: fmt.Sprintf("%s must be %s", p.Name, expect)}
	}

	switch p.Type {
	case Boolean:
		switch strings.ToLower(text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, invalid("'true' or 'false'")
	case Integer:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, invalid("a whole number")
		}
		return n, nil
	case Decimal:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, invalid("a decimal number")
		}
		return d, nil
	case Money:
		d, err := ParseMoney(text)
		if err != nil {
			return nil, invalid("an amount like 30 or 49.99")
		}
		return d, nil
	case Date:
		t, err := time.Parse("2006-01-02", text)
		if err != nil {
			return nil, invalid("a date in YYYY-MM-DD format")
		}
		return t.Format("2006-01-02"), nil
	case Timestamp:
		t, ok := validator.ParseTimestamp(text)
		if !ok {
			return nil, invalid("a timestamp in YYYY-MM-DD HH:MM format")
		}
		return t.Format("2006-01-02 15:04:05"), nil
	case Duration:
		secs, err := ParseInterval(text)
		if err != nil {
			return nil, invalid("an interval in HH:MM:SS format")
		}
		return secs, nil
	default:
		return text, nil
	}
}

// ParseMoney accepts an optional leading $ and thousands separators and
// rounds to cents. Negative amounts are rejected.
func ParseMoney(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(text), "$"), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", text)
	}
	return d.Round(2), nil
}

// ParseInterval converts HH:MM:SS into whole seconds.
func ParseInterval(text string) (int64, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("interval %q: want HH:MM:SS", text)
	}
	var fields [3]int64
	for i, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("interval %q: bad component %q", text, part)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("interval %q: minutes and seconds must be below 60", text)
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// FormatInterval renders whole seconds as HH:MM:SS.
func FormatInterval(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, secs/3600, (secs%3600)/60, secs%60)
}
