// Package query defines the abstract syntax a parsed Datalog query takes
// before algebrization: find specs, patterns, and the clause forms that
// can appear in a :where vector.
package query

import (
	"fmt"

	"github.com/relidb/relidb/datalog"
)

// Variable is a Datalog logic variable, surface-syntax "?x".
type Variable string

// String renders the variable in its surface form.
func (v Variable) String() string { return "?" + string(v) }

// SrcVar names an alternate data source, surface-syntax "$x". Accepted in
// pattern position and recorded on the pattern, but the pipeline only ever
// wires the default source -- multiple data sources are an open question
// this repository does not resolve.
type SrcVar string

// PlaceholderVar is the anonymous "_" pattern element: it binds nothing
// and constrains nothing.
const PlaceholderVar = Variable("_")

// PatternValue is one element of a data pattern's value position: either
// a bound logic Variable or a constant datalog.TypedValue.
type PatternValue struct {
	Var      Variable
	Const    datalog.TypedValue
	IsConst  bool
}

// VarPatternValue builds a variable pattern element.
func VarPatternValue(v Variable) PatternValue { return PatternValue{Var: v} }

// ConstPatternValue builds a constant pattern element.
func ConstPatternValue(v datalog.TypedValue) PatternValue {
	return PatternValue{Const: v, IsConst: true}
}

// Clause is any form that can appear in a :where vector.
type Clause interface {
	clause()
}

// AttrPattern is a data pattern's attribute position: either a constant
// ident keyword, or (per the unresolved-attribute case the algebrizer
// handles by scanning the bare datoms table) a bound variable or the
// placeholder.
type AttrPattern struct {
	Var     Variable
	Const   datalog.Keyword
	IsConst bool
}

// ConstAttrPattern builds an attribute position naming a fixed ident.
func ConstAttrPattern(k datalog.Keyword) AttrPattern { return AttrPattern{Const: k, IsConst: true} }

// VarAttrPattern builds an attribute position left unresolved: a variable
// (or the placeholder) binds to whatever attribute entid the matching row
// holds.
func VarAttrPattern(v Variable) AttrPattern { return AttrPattern{Var: v} }

// String renders the attribute position for diagnostics.
func (a AttrPattern) String() string {
	if a.IsConst {
		return a.Const.String()
	}
	return a.Var.String()
}

// DataPattern is a single [e a v] (or [e a v tx]) pattern, the base case
// every other clause form eventually reduces to.
type DataPattern struct {
	Src    SrcVar
	HasSrc bool
	E      PatternValue
	A      AttrPattern
	V      PatternValue
	Tx     *PatternValue // nil when the pattern doesn't constrain tx
}

func (DataPattern) clause() {}

// Reversed reports whether the pattern's attribute is a reversed
// reference (":ns/_attr"). Algebrization swaps E and V before this pattern
// enters a ConjoiningClauses. An unresolved (variable/placeholder)
// attribute position is never reversed -- reversal is a property of a
// known ident's name.
func (p DataPattern) Reversed() bool { return p.A.IsConst && p.A.Const.IsReversed() }

// Canonical returns the pattern with a reversed attribute rewritten to its
// forward form and E/V swapped, so downstream stages only ever see forward
// attributes. It is an error to reverse a pattern whose value position is
// not a variable (spec invariant 1).
func (p DataPattern) Canonical() (DataPattern, error) {
	if !p.Reversed() {
		return p, nil
	}
	if p.V.IsConst {
		return DataPattern{}, fmt.Errorf("query: reversed attribute %s requires a variable value position", p.A)
	}
	return DataPattern{
		Src:    p.Src,
		HasSrc: p.HasSrc,
		E:      p.V,
		A:      ConstAttrPattern(p.A.Const.Reverse()),
		V:      p.E,
		Tx:     p.Tx,
	}, nil
}

// Predicate is a numeric comparison clause: (< ?a ?b), (<= ?a 10), etc.
// Non-goals exclude general function predicates; only numeric comparisons
// over variables and constants are supported.
type Predicate struct {
	Op   CompareOp
	Args []PatternValue
}

func (Predicate) clause() {}

// CompareOp is one of the five numeric comparison operators a Predicate
// clause may use.
type CompareOp string

const (
	OpLessThan    CompareOp = "<"
	OpLessEq      CompareOp = "<="
	OpGreaterThan CompareOp = ">"
	OpGreaterEq   CompareOp = ">="
	OpNotEqual    CompareOp = "<>"
)

// And is an explicit conjunction, used to group several clauses into one
// branch of an Or/OrJoin/Not/NotJoin.
type And struct {
	Clauses []Clause
}

func (And) clause() {}

// Or is a disjunction of clauses. Each branch is algebrized independently;
// the clause is satisfied if any branch is. The projected variable set is
// the intersection of every branch's bound variables.
type Or struct {
	Clauses []Clause
}

func (Or) clause() {}

// OrJoin is Or with an explicit set of variables the branches must agree
// to bind, even if a branch could bind more.
type OrJoin struct {
	Vars    []Variable
	Clauses []Clause
}

func (OrJoin) clause() {}

// Not negates the conjunction of its clauses: the enclosing row is kept
// only if no row satisfies all the negated clauses together. Compiles to a
// correlated NOT EXISTS.
type Not struct {
	Clauses []Clause
}

func (Not) clause() {}

// NotJoin is Not with an explicit join-variable set restricting which
// outer variables correlate into the negated subquery.
type NotJoin struct {
	Vars    []Variable
	Clauses []Clause
}

func (NotJoin) clause() {}

// FindSpecKind distinguishes the four result shapes a query can ask for.
type FindSpecKind int

const (
	FindRelation FindSpecKind = iota // [:find ?a ?b]
	FindColl                          // [:find [?a ...]]
	FindTuple                         // [:find [?a ?b]]
	FindScalar                        // [:find ?a .]
)

// FindSpec is the parsed :find clause: which variables to project, and in
// what shape.
type FindSpec struct {
	Kind Kind
	Vars []Variable
}

// Kind is an alias kept for readability at call sites (FindSpec.Kind).
type Kind = FindSpecKind

// OrderDirection is ascending or descending for one :order-by term.
type OrderDirection int

const (
	Ascending OrderDirection = iota
	Descending
)

// OrderBy is one :order-by term.
type OrderBy struct {
	Var       Variable
	Direction OrderDirection
}

// Limit is the parsed :limit clause: either a literal count or a bound
// input variable resolved at translation time.
type Limit struct {
	IsVar bool
	N     int64
	Var   Variable
}

// InputSpec is one :in binding form: a scalar variable, a collection
// binding "[?x ...]", or a tuple binding "[?x ?y]".
type InputSpec struct {
	Scalar     Variable
	IsScalar   bool
	Collection Variable
	IsColl     bool
	Tuple      []Variable
	IsTuple    bool
	Src        SrcVar
	IsSrc      bool
}

// Query is the fully parsed query: find spec, input bindings, with-vars,
// where clauses, ordering and limit.
type Query struct {
	Find    FindSpec
	In      []InputSpec
	With    []Variable
	Where   []Clause
	OrderBy []OrderBy
	Limit   *Limit
}
