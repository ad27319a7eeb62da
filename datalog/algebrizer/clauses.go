package algebrizer

import (
	"fmt"
	"sort"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/sqlir"
)

var compareOps = map[query.CompareOp]sqlir.Op{
	query.OpLessThan:    sqlir.OpLt,
	query.OpLessEq:      sqlir.OpLe,
	query.OpGreaterThan: sqlir.OpGt,
	query.OpGreaterEq:   sqlir.OpGe,
	query.OpNotEqual:    sqlir.OpNe,
}

// addClause dispatches one parsed clause to the algebrizer step that knows
// how to fold it into the accumulator.
func (cc *ConjoiningClauses) addClause(c query.Clause) error {
	switch v := c.(type) {
	case query.DataPattern:
		return cc.addPattern(v)
	case query.Predicate:
		return cc.addPredicate(v)
	case query.And:
		return cc.addAnd(v)
	case query.Or:
		return cc.addOr(nil, v.Clauses)
	case query.OrJoin:
		return cc.addOr(v.Vars, v.Clauses)
	case query.Not:
		return cc.addNot(nil, v.Clauses)
	case query.NotJoin:
		return cc.addNot(v.Vars, v.Clauses)
	default:
		return newError(ErrCodeUnsupportedClause, "unsupported clause %T", c)
	}
}

func (cc *ConjoiningClauses) addAnd(a query.And) error {
	for _, c := range a.Clauses {
		if err := cc.addClause(c); err != nil {
			return err
		}
	}
	return nil
}

// addPredicate resolves a numeric comparison clause: a variable argument
// resolves to its already-bound column (predicates never introduce a fresh
// binding, so a variable must be bound by a preceding pattern) and a
// constant argument to its literal.
func (cc *ConjoiningClauses) addPredicate(p query.Predicate) error {
	if len(p.Args) != 2 {
		return newError(ErrCodeUnsupportedClause, "predicate %s takes exactly two arguments", p.Op)
	}
	op, ok := compareOps[p.Op]
	if !ok {
		return newError(ErrCodeUnsupportedClause, "unsupported comparison operator %s", p.Op)
	}

	left, err := cc.resolveArg(p.Args[0])
	if err != nil {
		return err
	}
	right, err := cc.resolveArg(p.Args[1])
	if err != nil {
		return err
	}

	for _, v := range p.Args {
		if !v.IsConst {
			cc.narrowType(v.Var, datalog.NumericValueTypes)
		}
	}

	cc.Wheres = append(cc.Wheres, sqlir.InfixConstraint(op, left, right))
	return nil
}

func (cc *ConjoiningClauses) resolveArg(pv query.PatternValue) (sqlir.ColumnOrExpression, error) {
	if pv.IsConst {
		return sqlir.CEValue(pv.Const), nil
	}
	qa, err := cc.firstColumn(pv.Var)
	if err != nil {
		return sqlir.ColumnOrExpression{}, err
	}
	return sqlir.CEColumn(qa), nil
}

// clausesOf flattens a branch of an or/or-join/not/not-join into the list
// of clauses it conjoins: an explicit And unwraps to its members, anything
// else is a singleton conjunction.
func clausesOf(c query.Clause) []query.Clause {
	if a, ok := c.(query.And); ok {
		return a.Clauses
	}
	return []query.Clause{c}
}

// addOr algebrizes each branch independently into its own ConjoiningClauses.
// When every arm reduces to a single pattern scanning the same table and
// binding only the one shared entity variable, the whole thing collapses
// into one inline alternation of (attribute = A AND value = V) terms on a
// single alias -- no union subquery needed. Otherwise it falls back to
// folding the arms into a computed union table projecting the join
// variables. With an explicit vars list (or-join) those are the projected
// columns; a bare or projects the intersection of every branch's bound
// variables.
func (cc *ConjoiningClauses) addOr(vars []query.Variable, branches []query.Clause) error {
	if len(branches) == 0 {
		return newError(ErrCodeEmptyOrBranches, "or/or-join requires at least one branch")
	}

	armCCs := make([]*ConjoiningClauses, 0, len(branches))
	for _, branch := range branches {
		arm := New(cc.Schema)
		for _, c := range clausesOf(branch) {
			if err := arm.addClause(c); err != nil {
				return err
			}
		}
		armCCs = append(armCCs, arm)
	}

	projected := vars
	if projected == nil {
		projected = boundInAll(armCCs)
	}
	if len(projected) == 0 {
		return newError(ErrCodeOrJoinVarsUnbound, "or/or-join has no variable common to every branch")
	}

	// Every arm must project every declared variable (testable property
	// 8); an arm that doesn't can never be unioned with the others at all,
	// so the whole or/or-join can never produce a row.
	for _, arm := range armCCs {
		for _, v := range projected {
			if qas, ok := arm.ColumnBindings[v]; !ok || len(qas) == 0 {
				cc.MarkKnownEmpty(fmt.Sprintf("or/or-join arm does not bind declared variable %s", v))
				return nil
			}
		}
	}

	if table, eqs, ok := simpleOrShape(projected, armCCs); ok {
		cc.addSimpleOr(projected[0], table, eqs)
		return nil
	}

	arms := make([]*sqlir.SelectQuery, 0, len(armCCs))
	for _, arm := range armCCs {
		arms = append(arms, arm.ToSelectQuery(projected))
	}

	table := cc.addComputed(sqlir.ComputedTable{Arms: arms})
	alias := cc.nextAlias(table)
	cc.From = append(cc.From, sqlir.SourceAlias{Table: table, Alias: alias})

	for _, v := range projected {
		qa := sqlir.QA(alias, sqlir.VarColumn(string(v)))
		cc.bindVar(v, qa)

		union := datalog.ValueTypeSet(0)
		for _, arm := range armCCs {
			t, ok := arm.KnownTypes[v]
			if !ok {
				t = datalog.AnyValueType
			}
			union = union.Union(t)
		}
		cc.narrowType(v, union)
	}

	return nil
}

// orArmEquality is one arm's (attribute, value) pair in the simple-or
// shape: a single equality test against each of a shared alias's attribute
// and value columns.
type orArmEquality struct {
	attr datalog.TypedValue
	val  datalog.TypedValue
}

// simpleOrShape reports whether every arm reduces to a single resolved
// pattern binding only the shared entity variable, scanning the same kind
// of table with nothing but a constant attribute and a constant value --
// the shape the spec requires collapse into one inline alternation rather
// than a union subquery.
func simpleOrShape(projected []query.Variable, armCCs []*ConjoiningClauses) (sqlir.DatomsTable, []orArmEquality, bool) {
	if len(projected) != 1 {
		return sqlir.DatomsTable{}, nil, false
	}
	v := projected[0]

	var table sqlir.DatomsTable
	eqs := make([]orArmEquality, 0, len(armCCs))
	for i, arm := range armCCs {
		if arm.IsKnownEmpty() || len(arm.Computed) != 0 || len(arm.From) != 1 || len(arm.ColumnBindings) != 1 {
			return sqlir.DatomsTable{}, nil, false
		}
		qas, ok := arm.ColumnBindings[v]
		if !ok || len(qas) != 1 || !qas[0].Column.IsFixed || qas[0].Column.Fixed != sqlir.ColEntity {
			return sqlir.DatomsTable{}, nil, false
		}
		eq, ok := singleAttrValueEquality(arm)
		if !ok {
			return sqlir.DatomsTable{}, nil, false
		}
		if i == 0 {
			table = arm.From[0].Table
		} else if arm.From[0].Table != table {
			return sqlir.DatomsTable{}, nil, false
		}
		eqs = append(eqs, eq)
	}
	return table, eqs, true
}

// singleAttrValueEquality extracts an arm's (attribute, value) equality
// pair, succeeding only when the arm's WHERE list is exactly that pair and
// nothing else -- a fulltext guard, boolean guard, or extra unification
// disqualifies the arm from the simple shape.
func singleAttrValueEquality(arm *ConjoiningClauses) (orArmEquality, bool) {
	var eq orArmEquality
	var haveAttr, haveVal bool
	if len(arm.Wheres) != 2 {
		return eq, false
	}
	for _, w := range arm.Wheres {
		if w.Kind() != "infix" {
			return eq, false
		}
		op, left, right := w.Infix()
		if op != sqlir.OpEq || left.Kind() != "column" || right.Kind() != "value" {
			return eq, false
		}
		col := left.Column().Column
		if !col.IsFixed {
			return eq, false
		}
		switch col.Fixed {
		case sqlir.ColAttribute:
			eq.attr, haveAttr = right.ValueLiteral(), true
		case sqlir.ColValue:
			eq.val, haveVal = right.ValueLiteral(), true
		default:
			return eq, false
		}
	}
	if !haveAttr || !haveVal {
		return eq, false
	}
	return eq, true
}

// addSimpleOr builds the inline-OR rendering of a simple or/or-join: one
// fresh alias scanning the shared table, with the arms' (attribute, value)
// pairs disjoined directly into the outer WHERE list instead of a unioned
// subquery.
func (cc *ConjoiningClauses) addSimpleOr(v query.Variable, table sqlir.DatomsTable, eqs []orArmEquality) {
	alias := cc.nextAlias(table)
	cc.From = append(cc.From, sqlir.SourceAlias{Table: table, Alias: alias})
	cc.bindVar(v, sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColEntity)))
	cc.narrowType(v, datalog.UnitValueTypeSet(datalog.TypeRef))

	ors := make([]sqlir.Constraint, 0, len(eqs))
	for _, eq := range eqs {
		aEq := sqlir.Equal(sqlir.CEColumn(sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColAttribute))), sqlir.CEValue(eq.attr))
		vEq := sqlir.Equal(sqlir.CEColumn(sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColValue))), sqlir.CEValue(eq.val))
		ors = append(ors, sqlir.AndConstraint([]sqlir.Constraint{aEq, vEq}))
	}
	cc.Wheres = append(cc.Wheres, sqlir.OrConstraint(ors))
}

// boundInAll returns the variables every given CC binds, sorted by name --
// the implicit projection of a bare or.
func boundInAll(ccs []*ConjoiningClauses) []query.Variable {
	if len(ccs) == 0 {
		return nil
	}
	var out []query.Variable
	for v := range ccs[0].ColumnBindings {
		inAll := true
		for _, other := range ccs[1:] {
			if _, ok := other.ColumnBindings[v]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// addNot algebrizes the negated clauses into their own ConjoiningClauses,
// correlates it back to the outer query on the given (or, for a bare not,
// every shared) variable, and folds the result into a single NOT EXISTS
// constraint.
func (cc *ConjoiningClauses) addNot(vars []query.Variable, clauses []query.Clause) error {
	inner := New(cc.Schema)
	// Share the outer alias counters so the correlated subquery's aliases
	// never shadow the outer aliases it is joined against.
	inner.aliasCounters = cc.aliasCounters
	for _, branch := range clauses {
		for _, c := range clausesOf(branch) {
			if err := inner.addClause(c); err != nil {
				return err
			}
		}
	}

	correlated := vars
	if correlated == nil {
		correlated = sharedVars(cc, inner)
	}

	for _, v := range correlated {
		outerQA, err := cc.firstColumn(v)
		if err != nil {
			return err
		}
		innerQA, err := inner.firstColumn(v)
		if err != nil {
			return err
		}
		inner.Wheres = append(inner.Wheres, sqlir.Equal(sqlir.CEColumn(innerQA), sqlir.CEColumn(outerQA)))
	}

	sub := inner.ToSelectQuery(nil)
	cc.Wheres = append(cc.Wheres, sqlir.NotExistsConstraint(sub))
	return nil
}

func sharedVars(outer, inner *ConjoiningClauses) []query.Variable {
	var out []query.Variable
	for v := range inner.ColumnBindings {
		if _, ok := outer.ColumnBindings[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
