// Package translator consumes a finished ConjoiningClauses and the parsed
// query's find/order/limit spec and emits the relational IR (sqlir) the
// SQL builder renders to text: attaching projection, DISTINCT, ORDER BY
// and LIMIT on top of the algebrizer's joins and constraints.
package translator

import (
	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/algebrizer"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/sqlir"
)

// forcesSingleRow reports whether a find spec is inherently single-row:
// scalar takes the first row's first column, tuple takes the first row's
// every column. Both get an implicit LIMIT 1, which in turn disables
// DISTINCT (testable property 4).
func forcesSingleRow(kind query.FindSpecKind) bool {
	return kind == query.FindScalar || kind == query.FindTuple
}

// Translate turns a fully algebrized CC into a SelectQuery. inputs supplies
// the values bound to :in variables, consulted only to resolve a :limit
// that names an input variable.
func Translate(cc *algebrizer.ConjoiningClauses, q *query.Query, inputs map[query.Variable]datalog.TypedValue) (*sqlir.SelectQuery, error) {
	projectedVars := q.Find.Vars

	projection, err := buildProjection(cc, projectedVars, cc.IsKnownEmpty())
	if err != nil {
		return nil, err
	}

	from := sqlir.TableListFrom(sqlir.TableList(cc.From))
	if cc.IsKnownEmpty() {
		from = sqlir.NothingFrom()
	}

	order, err := buildOrder(cc, q.OrderBy)
	if err != nil {
		return nil, err
	}

	limit, limitVar, err := resolveLimit(q, inputs)
	if err != nil {
		return nil, err
	}

	distinct := true
	switch {
	case forcesSingleRow(q.Find.Kind):
		one := int64(1)
		limit, limitVar = &one, nil
		distinct = false
	case limit != nil && *limit == 1:
		distinct = false
	}

	constraints := cc.Wheres
	if cc.IsKnownEmpty() {
		// A known-empty plan is still a well-formed, column-shape-preserving
		// query: LIMIT 0 makes the emptiness explicit regardless of
		// whatever limit the surface query asked for, and DISTINCT over an
		// empty relation is harmless but kept for shape parity with the
		// non-empty case. The accumulated constraints name aliases the
		// degenerate FROM no longer has, so they are dropped.
		zero := int64(0)
		limit, limitVar = &zero, nil
		constraints = nil
	}

	return &sqlir.SelectQuery{
		Distinct:     distinct,
		Projection:   projection,
		From:         from,
		Constraints:  constraints,
		Order:        order,
		Limit:        limit,
		LimitVar:     limitVar,
		Computed:     cc.Computed,
		EmptyBecause: cc.EmptyBecause,
	}, nil
}

// buildProjection projects one column per find variable, aliased to its
// surface "?name" form. A variable whose algebrized type isn't fully
// pinned down also projects its sibling value_type_tag column, so the
// projector can disambiguate a row-by-row type at read time.
func buildProjection(cc *algebrizer.ConjoiningClauses, vars []query.Variable, knownEmpty bool) (sqlir.Projection, error) {
	if len(vars) == 0 {
		return sqlir.OneProjection(), nil
	}
	cols := make([]sqlir.ProjectedColumn, 0, len(vars))
	for _, v := range vars {
		qas, ok := cc.ColumnBindings[v]
		if !ok || len(qas) == 0 {
			continue
		}
		qa := qas[0]
		needsTag := cc.NeedsTypeTag(v)

		if knownEmpty {
			cols = append(cols, sqlir.ProjectedColumn{Expr: sqlir.CENull(), Alias: v.String()})
			if needsTag {
				cols = append(cols, sqlir.ProjectedColumn{Expr: sqlir.CENull(), Alias: v.String() + "_value_type_tag"})
			}
			continue
		}

		cols = append(cols, sqlir.ProjectedColumn{Expr: sqlir.CEColumn(qa), Alias: v.String()})
		if needsTag {
			cols = append(cols, sqlir.ProjectedColumn{Expr: sqlir.CEColumn(typeTagQA(qa)), Alias: v.String() + "_value_type_tag"})
		}
	}

	// A pattern whose attribute position never resolved (or an otherwise
	// known-empty query where a contradiction struck before any find
	// variable was ever bound) leaves no column to preserve the shape of --
	// fall back to the bare existence-check projection rather than hand the
	// builder an empty SELECT list.
	if knownEmpty && len(cols) == 0 {
		return sqlir.OneProjection(), nil
	}
	return sqlir.ColumnsProjection(cols), nil
}

// typeTagQA returns the qualified alias for a column's value-type-tag
// sibling: the fixed value_type_tag column for a datoms-shaped table, or
// the matching "<var>_value_type_tag" column for a computed union table.
func typeTagQA(qa sqlir.QualifiedAlias) sqlir.QualifiedAlias {
	if qa.Column.IsFixed {
		return qa.ForTypeTag()
	}
	return sqlir.QA(qa.Table, sqlir.VarTypeTagColumn(qa.Column.Variable.Var))
}

// buildOrder emits each :order-by term by the variable's projected output
// alias ("?x"), not its source column -- ORDER BY in the emitted SQL
// always refers back to the SELECT list. When the variable's type isn't
// pinned down, its value_type_tag alias is emitted first, to keep rows of
// incompatible types from interleaving under a single sort.
func buildOrder(cc *algebrizer.ConjoiningClauses, orderBy []query.OrderBy) ([]sqlir.OrderBy, error) {
	if len(orderBy) == 0 {
		return nil, nil
	}
	out := make([]sqlir.OrderBy, 0, len(orderBy))
	for _, ob := range orderBy {
		if _, ok := cc.ColumnBindings[ob.Var]; !ok {
			return nil, newError(ErrCodeUnprojectedOrderVar, "order-by variable %s is not bound by any pattern", ob.Var)
		}
		dir := sqlir.Asc
		if ob.Direction == query.Descending {
			dir = sqlir.Desc
		}

		if cc.NeedsTypeTag(ob.Var) {
			out = append(out, sqlir.OrderBy{Direction: dir, Column: sqlir.VariableColumn{Var: ob.Var.String(), TypeTag: true}})
		}
		out = append(out, sqlir.OrderBy{Direction: dir, Column: sqlir.VariableColumn{Var: ob.Var.String()}})
	}
	return out, nil
}

func resolveLimit(q *query.Query, inputs map[query.Variable]datalog.TypedValue) (*int64, *string, error) {
	if q.Limit == nil {
		return nil, nil, nil
	}
	if !q.Limit.IsVar {
		if q.Limit.N <= 0 {
			return nil, nil, newError(ErrCodeLimitOutOfRange, "limit must be a positive integer, got %d", q.Limit.N)
		}
		n := q.Limit.N
		return &n, nil, nil
	}
	v, ok := inputs[q.Limit.Var]
	if !ok {
		name := string(q.Limit.Var)
		return nil, &name, nil
	}
	if v.Tag() != datalog.TypeLong || v.Long() <= 0 {
		return nil, nil, newError(ErrCodeLimitOutOfRange, "limit variable %s must be bound to a positive integer", q.Limit.Var)
	}
	n := v.Long()
	return &n, nil, nil
}
