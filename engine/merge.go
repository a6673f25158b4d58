package engine

// Change is one specified optional field of an update.
type Change struct {
	Param Param
	Value any
}

// ChangeSet is the effective list of changes for an update against the row
// identified by Key. It is never empty.
type ChangeSet struct {
	Operation string
	Key       map[string]any
	Changes   []Change

	values FieldValues
}

// Merge computes the change set for an update. Only optional params whose
// value was specified take part; an explicit nil counts as specified. When
// nothing was specified the update is rejected with EmptyChangeSetError so no
// statement ever runs.
func Merge(op string, key map[string]any, params []Param, values FieldValues) (*ChangeSet, error) {
	cs := &ChangeSet{Operation: op, Key: key, values: values}
	for _, p := range params {
		if p.Required {
			continue
		}
		v, ok := values[p.Name]
		if !ok || !v.set {
			continue
		}
		cs.Changes = append(cs.Changes, Change{Param: p, Value: v.v})
	}
	if len(cs.Changes) == 0 {
		return nil, &EmptyChangeSetError{Operation: op}
	}
	return cs, nil
}

// Has reports whether name is part of the change set.
func (cs *ChangeSet) Has(name string) bool {
	for _, c := range cs.Changes {
		if c.Param.Name == name {
			return true
		}
	}
	return false
}

// Columns lists the target columns of the change set in param order.
func (cs *ChangeSet) Columns() []string {
	cols := make([]string, 0, len(cs.Changes))
	for _, c := range cs.Changes {
		cols = append(cols, c.Param.column())
	}
	return cols
}

// Args returns the named arguments for a preserving update over params: the
// key columns, every param value and its _set flag. Unspecified params bind
// nil with a false flag so the statement keeps the stored value.
func (cs *ChangeSet) Args(params []Param) map[string]any {
	args := cs.values.Args(params)
	for k, v := range cs.Key {
		args[k] = v
	}
	return args
}
