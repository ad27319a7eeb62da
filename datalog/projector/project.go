// Package projector reconstructs typed Datalog values from the raw SQL
// rows a driver scans back, shaping them into the scalar, tuple,
// collection or relation form the original :find spec asked for. It is
// the mirror image of the translator's projection: where the translator
// decides which columns (and which value_type_tag siblings) to select,
// the projector knows how to read them back.
package projector

import (
	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/algebrizer"
	"github.com/relidb/relidb/datalog/query"
)

// ColumnSpec describes one projected variable's shape in a result row: its
// name, and whether its value_type_tag sibling column immediately follows
// it (see ConjoiningClauses.NeedsTypeTag).
type ColumnSpec struct {
	Var     query.Variable
	HasTag  bool
	Declared datalog.ValueType // meaningful only when !HasTag
}

// Plan derives the column layout a translated query's raw rows carry, in
// the same order Translate's projection built them in.
func Plan(cc *algebrizer.ConjoiningClauses, vars []query.Variable) []ColumnSpec {
	specs := make([]ColumnSpec, 0, len(vars))
	for _, v := range vars {
		if _, ok := cc.ColumnBindings[v]; !ok {
			continue
		}
		spec := ColumnSpec{Var: v, HasTag: cc.NeedsTypeTag(v)}
		if !spec.HasTag {
			if t, ok := cc.KnownTypes[v].Exemplar(); ok {
				spec.Declared = t
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// width is how many raw SQL columns one ColumnSpec consumes.
func (c ColumnSpec) width() int {
	if c.HasTag {
		return 2
	}
	return 1
}

// decodeRow consumes one raw scanned row according to plan, producing one
// typed value per ColumnSpec.
func decodeRow(plan []ColumnSpec, raw []interface{}) ([]datalog.TypedValue, error) {
	want := 0
	for _, c := range plan {
		want += c.width()
	}
	if len(raw) != want {
		return nil, newError(ErrCodeColumnCountMismatch, "expected %d raw columns, got %d", want, len(raw))
	}

	out := make([]datalog.TypedValue, 0, len(plan))
	i := 0
	for _, c := range plan {
		if raw[i] == nil {
			out = append(out, datalog.TypedValue{})
			i += c.width()
			continue
		}
		if c.HasTag {
			tag, err := tagFromRaw(raw[i+1])
			if err != nil {
				return nil, err
			}
			v, err := decodeByTag(tag, raw[i])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		} else {
			v, err := decodeByTag(c.Declared, raw[i])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		i += c.width()
	}
	return out, nil
}

// Relation decodes every row of a relation/collection find into one typed
// row per input row.
func Relation(plan []ColumnSpec, rows [][]interface{}) ([][]datalog.TypedValue, error) {
	out := make([][]datalog.TypedValue, 0, len(rows))
	for _, raw := range rows {
		row, err := decodeRow(plan, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Scalar decodes a scalar find: the first column of the first row, or
// (false) if there were no rows.
func Scalar(plan []ColumnSpec, rows [][]interface{}) (datalog.TypedValue, bool, error) {
	if len(rows) == 0 {
		return datalog.TypedValue{}, false, nil
	}
	row, err := decodeRow(plan, rows[0])
	if err != nil {
		return datalog.TypedValue{}, false, err
	}
	if len(row) == 0 {
		return datalog.TypedValue{}, false, nil
	}
	return row[0], true, nil
}

// Tuple decodes a tuple find: every column of the first row, or (false)
// if there were no rows.
func Tuple(plan []ColumnSpec, rows [][]interface{}) ([]datalog.TypedValue, bool, error) {
	if len(rows) == 0 {
		return nil, false, nil
	}
	row, err := decodeRow(plan, rows[0])
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// Coll decodes a collection find: the first column of every row.
func Coll(plan []ColumnSpec, rows [][]interface{}) ([]datalog.TypedValue, error) {
	out := make([]datalog.TypedValue, 0, len(rows))
	for _, raw := range rows {
		row, err := decodeRow(plan, raw)
		if err != nil {
			return nil, err
		}
		if len(row) > 0 {
			out = append(out, row[0])
		}
	}
	return out, nil
}

// Project dispatches to the decoding shape the query's find spec asked
// for, returning one of datalog.TypedValue (scalar), []datalog.TypedValue
// (tuple or collection), or [][]datalog.TypedValue (relation). A scalar or
// tuple find over zero rows returns (nil, false-equivalent) as described
// by each helper above, surfaced here as a nil interface value.
func Project(cc *algebrizer.ConjoiningClauses, q *query.Query, rows [][]interface{}) (interface{}, error) {
	plan := Plan(cc, q.Find.Vars)
	switch q.Find.Kind {
	case query.FindScalar:
		v, ok, err := Scalar(plan, rows)
		if err != nil || !ok {
			return nil, err
		}
		return v, nil
	case query.FindTuple:
		v, ok, err := Tuple(plan, rows)
		if err != nil || !ok {
			return nil, err
		}
		return v, nil
	case query.FindColl:
		return Coll(plan, rows)
	default:
		return Relation(plan, rows)
	}
}
