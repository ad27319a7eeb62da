// Package algebrizer resolves a parsed query.Query against a schema into a
// ConjoiningClauses: a relational-algebra accumulator of joined tables,
// column unifications, type constraints and known-empty reasoning. It is
// the pipeline's type-inference stage, sitting between the parser and the
// translator that turns a finished ConjoiningClauses into a sqlir.SelectQuery.
package algebrizer

import (
	"fmt"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/schema"
	"github.com/relidb/relidb/datalog/sqlir"
)

// ConjoiningClauses accumulates the tables, joins, constraints and
// type/value bindings a query's :where clauses produce as they're
// algebrized one at a time. It is mutated in place by addClause and its
// helpers. The translator reads the finished accumulator's fields directly;
// ToSelectQuery turns a nested or-arm or negated CC into a standalone
// relational-IR subquery.
type ConjoiningClauses struct {
	Schema *schema.Schema

	From           []sqlir.SourceAlias
	Wheres         []sqlir.Constraint
	ColumnBindings map[query.Variable][]sqlir.QualifiedAlias
	KnownTypes     map[query.Variable]datalog.ValueTypeSet
	ValueBindings  map[query.Variable]datalog.TypedValue
	Computed       []sqlir.ComputedTable

	// EmptyBecause, once set, means no row can ever satisfy this CC.
	// Algebrization keeps running (so callers still get a well-typed,
	// fully-formed plan) rather than aborting on the first impossibility.
	EmptyBecause string

	aliasCounters map[string]int
}

// New builds an empty ConjoiningClauses bound to a schema.
func New(sch *schema.Schema) *ConjoiningClauses {
	return &ConjoiningClauses{
		Schema:         sch,
		ColumnBindings: make(map[query.Variable][]sqlir.QualifiedAlias),
		KnownTypes:     make(map[query.Variable]datalog.ValueTypeSet),
		ValueBindings:  make(map[query.Variable]datalog.TypedValue),
		aliasCounters:  make(map[string]int),
	}
}

// IsKnownEmpty reports whether this CC can never produce a row.
func (cc *ConjoiningClauses) IsKnownEmpty() bool { return cc.EmptyBecause != "" }

// MarkKnownEmpty records the first reason a CC can never produce a row.
// Later calls are no-ops: the first contradiction found is the one worth
// reporting.
func (cc *ConjoiningClauses) MarkKnownEmpty(reason string) {
	if cc.EmptyBecause == "" {
		cc.EmptyBecause = reason
	}
}

func (cc *ConjoiningClauses) nextAlias(t sqlir.DatomsTable) sqlir.TableAlias {
	name := t.Name()
	n := cc.aliasCounters[name]
	cc.aliasCounters[name] = n + 1
	return sqlir.TableAlias(fmt.Sprintf("%s%02d", name, n))
}

// addComputed registers a union table and returns a fresh DatomsTable
// referring to it.
func (cc *ConjoiningClauses) addComputed(ct sqlir.ComputedTable) sqlir.DatomsTable {
	i := len(cc.Computed)
	cc.Computed = append(cc.Computed, ct)
	return sqlir.ComputedTable(i)
}

// bindVar records a fresh occurrence of v at qa. The first occurrence of a
// variable is definitional; every later occurrence adds an equality
// constraint joining it back to the first. The placeholder variable "_"
// is never bound -- each of its occurrences is independent and
// unconstrained.
func (cc *ConjoiningClauses) bindVar(v query.Variable, qa sqlir.QualifiedAlias) {
	if v == query.PlaceholderVar {
		return
	}
	existing := cc.ColumnBindings[v]
	if len(existing) > 0 {
		cc.Wheres = append(cc.Wheres, sqlir.Equal(sqlir.CEColumn(existing[0]), sqlir.CEColumn(qa)))
	}
	cc.ColumnBindings[v] = append(existing, qa)
}

// narrowType intersects a variable's known type set with allowed, marking
// the CC known-empty if the intersection is empty.
func (cc *ConjoiningClauses) narrowType(v query.Variable, allowed datalog.ValueTypeSet) {
	if v == query.PlaceholderVar {
		return
	}
	current, ok := cc.KnownTypes[v]
	if !ok {
		current = datalog.AnyValueType
	}
	narrowed := current.Intersect(allowed)
	cc.KnownTypes[v] = narrowed
	if narrowed.IsEmpty() {
		cc.MarkKnownEmpty(fmt.Sprintf("%s can never satisfy all its type constraints", v))
	}
}

// bindConstant constrains qa to equal a literal value.
func (cc *ConjoiningClauses) bindConstant(qa sqlir.QualifiedAlias, v datalog.TypedValue) {
	cc.Wheres = append(cc.Wheres, sqlir.Equal(sqlir.CEColumn(qa), sqlir.CEValue(v)))
}

// bindConstantWithBooleanGuard is bindConstant plus the exclusion guard an
// unresolved attribute's bare long 0/1 value needs: without a declared
// attribute type to disambiguate, a stored Boolean(true/false) and a
// stored Long(1/0) render as the same literal, so the guard rules out the
// Boolean reading explicitly. The pair is grouped as one AND so it renders
// parenthesized, matching how an isolated guard clause is shown in
// isolation.
func (cc *ConjoiningClauses) bindConstantWithBooleanGuard(qa sqlir.QualifiedAlias, v datalog.TypedValue) {
	eq := sqlir.Equal(sqlir.CEColumn(qa), sqlir.CEValue(v))
	guard := sqlir.InfixConstraint(sqlir.OpNe, sqlir.CEColumn(qa.ForTypeTag()), sqlir.CEIntLiteral(int64(datalog.TypeBoolean)))
	cc.Wheres = append(cc.Wheres, sqlir.AndConstraint([]sqlir.Constraint{eq, guard}))
}

// firstColumn returns a variable's first bound column, or an error if the
// variable has never been bound by a data pattern.
func (cc *ConjoiningClauses) firstColumn(v query.Variable) (sqlir.QualifiedAlias, error) {
	cols, ok := cc.ColumnBindings[v]
	if !ok || len(cols) == 0 {
		return sqlir.QualifiedAlias{}, newError(ErrCodeUnboundVariable, "variable %s is not bound by any pattern", v)
	}
	return cols[0], nil
}

// NeedsTypeTag reports whether v's algebrized type set is not pinned down
// to a single tag, meaning a consumer reading this variable's column back
// out of a result row also needs its sibling value_type_tag column to know
// how to decode it. Shared by the translator (which projects the extra
// column) and the projector (which reads it back).
func (cc *ConjoiningClauses) NeedsTypeTag(v query.Variable) bool {
	t, ok := cc.KnownTypes[v]
	return !ok || !t.IsUnit()
}

// ToSelectQuery projects the given variables out of the accumulated CC as
// a sqlir.SelectQuery. Used internally to turn an or/or-join branch or a
// not/not-join branch into a standalone SelectQuery; the translator builds
// the top-level query itself.
func (cc *ConjoiningClauses) ToSelectQuery(projected []query.Variable) *sqlir.SelectQuery {
	var projection sqlir.Projection
	if len(projected) == 0 {
		projection = sqlir.OneProjection()
	} else {
		cols := make([]sqlir.ProjectedColumn, 0, len(projected))
		for _, v := range projected {
			qas, ok := cc.ColumnBindings[v]
			if !ok || len(qas) == 0 {
				continue
			}
			expr := sqlir.CEColumn(qas[0])
			if cc.IsKnownEmpty() {
				expr = sqlir.CENull()
			}
			cols = append(cols, sqlir.ProjectedColumn{Expr: expr, Alias: string(v)})
		}
		if len(cols) == 0 {
			// Every declared variable went unbound (e.g. a known-empty
			// branch that never reached a real column) -- fall back to the
			// bare existence-check projection rather than an empty SELECT
			// list.
			projection = sqlir.OneProjection()
		} else {
			projection = sqlir.ColumnsProjection(cols)
		}
	}

	from := sqlir.TableListFrom(sqlir.TableList(cc.From))
	constraints := cc.Wheres
	if cc.IsKnownEmpty() {
		from = sqlir.NothingFrom()
		constraints = nil
	}

	return &sqlir.SelectQuery{
		Projection:   projection,
		From:         from,
		Constraints:  constraints,
		Computed:     cc.Computed,
		EmptyBecause: cc.EmptyBecause,
	}
}
