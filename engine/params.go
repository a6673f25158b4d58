package engine

import "strings"

// FieldType is the semantic type of a parameter or result column.
type FieldType int

const (
	Text FieldType = iota
	Boolean
	Integer
	Decimal
	Date
	Timestamp
	Duration
	Money
)

func (t FieldType) String() string {
	switch t {
	case Boolean:
		return "true/false"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Date:
		return "date, YYYY-MM-DD"
	case Timestamp:
		return "timestamp, YYYY-MM-DD HH:MM"
	case Duration:
		return "interval, HH:MM:SS"
	case Money:
		return "money"
	default:
		return "text"
	}
}

// Param describes one named input of an operation.
type Param struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	// Format is a validator tag applied to the trimmed raw text, e.g. "phone" or "email".
	Format string
	// Column overrides Name as the target column in generated assignments.
	Column string
}

func (p Param) column() string {
	if p.Column != "" {
		return p.Column
	}
	return p.Name
}

// SetFlag is the name of the companion boolean bound next to every optional parameter.
func (p Param) SetFlag() string {
	return p.Name + "_set"
}

// Definition is a named operation: its inputs and its statement template.
type Definition struct {
	ID       string
	Params   []Param
	Template string
}

// Optional returns the non-required parameters in declaration order.
func (d Definition) Optional() []Param {
	var out []Param
	for _, p := range d.Params {
		if !p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Value is a caller-supplied field. The zero Value is unspecified, which is
// different from a specified nil (an explicit NULL to write).
type Value struct {
	v   any
	set bool
}

// Unspecified is the marker for "leave the current value alone".
var Unspecified = Value{}

// Set marks v as specified.
func Set(v any) Value {
	return Value{v: v, set: true}
}

func (v Value) Specified() bool { return v.set }

func (v Value) Get() any { return v.v }

// FieldValues maps parameter names to supplied values.
type FieldValues map[string]Value

// Lookup returns the specified value for name, or nil and false.
func (fv FieldValues) Lookup(name string) (any, bool) {
	v, ok := fv[name]
	if !ok || !v.set {
		return nil, false
	}
	return v.v, true
}

// Args flattens fv into named statement arguments for params: each parameter
// binds its value (nil when unspecified) and its _set flag.
func (fv FieldValues) Args(params []Param) map[string]any {
	args := make(map[string]any, len(params)*2)
	for _, p := range params {
		v := fv[p.Name]
		args[p.Name] = v.v
		args[p.SetFlag()] = v.set
	}
	return args
}

// PreserveAssignments renders the SET list for an update that keeps the
// current column value whenever the parameter's _set flag is false.
func PreserveAssignments(params ...Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		col := p.column()
		parts = append(parts,
			col+" = CASE WHEN :"+p.SetFlag()+" THEN :"+p.Name+" ELSE "+col+" END")
	}
	return strings.Join(parts, ",\n\t\t\t")
}
