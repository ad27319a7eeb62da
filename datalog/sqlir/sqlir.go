// Package sqlir is the relational intermediate representation the
// translator emits and the SQL builder consumes: a small, storage-shaped
// algebra of tables, columns, projections and constraints, deliberately
// stopping short of being SQL text itself.
package sqlir

import (
	"fmt"

	"github.com/relidb/relidb/datalog"
)

// DatomsTable names one of the fixed storage views, or a Computed union
// table built by an or/or-join branch set.
type DatomsTable struct {
	// Fixed is one of the built-in views when Computed < 0.
	Fixed DatomsFixedTable
	// Computed indexes into the translator's list of union sub-plans when
	// >= 0; Fixed is ignored in that case.
	Computed int
}

// DatomsFixedTable is the closed set of built-in storage views.
type DatomsFixedTable int

const (
	Datoms DatomsFixedTable = iota
	FulltextValues
	FulltextDatoms
	AllDatoms
)

// FixedTable builds a DatomsTable referring to one of the built-in views.
func FixedTable(t DatomsFixedTable) DatomsTable { return DatomsTable{Fixed: t, Computed: -1} }

// ComputedTable builds a DatomsTable referring to the i'th computed union.
func ComputedTable(i int) DatomsTable { return DatomsTable{Computed: i} }

// IsComputed reports whether this table is a computed union rather than a
// built-in view.
func (t DatomsTable) IsComputed() bool { return t.Computed >= 0 }

// Name is the SQL-visible table name.
func (t DatomsTable) Name() string {
	if t.IsComputed() {
		return "c"
	}
	switch t.Fixed {
	case Datoms:
		return "datoms"
	case FulltextValues:
		return "fulltext_values"
	case FulltextDatoms:
		return "fulltext_datoms"
	case AllDatoms:
		return "all_datoms"
	default:
		return "datoms"
	}
}

// DatomsColumn is one of the fixed, named columns every datoms-shaped
// table carries.
type DatomsColumn int

const (
	ColEntity DatomsColumn = iota
	ColAttribute
	ColValue
	ColTx
	ColValueTypeTag
)

// AsStr is the bare SQL column name.
func (c DatomsColumn) AsStr() string {
	switch c {
	case ColEntity:
		return "e"
	case ColAttribute:
		return "a"
	case ColValue:
		return "v"
	case ColTx:
		return "tx"
	case ColValueTypeTag:
		return "value_type_tag"
	default:
		return "?"
	}
}

// VariableColumn names a projected variable column, or that variable's
// associated value-type-tag column, inside a computed union table.
type VariableColumn struct {
	Var      string
	TypeTag  bool
}

// AsStr is the bare SQL column name for a variable column.
func (c VariableColumn) AsStr() string {
	if c.TypeTag {
		return c.Var + "_value_type_tag"
	}
	return c.Var
}

// Column is either one of the fixed datoms columns or a named variable
// column from a computed table.
type Column struct {
	Fixed    DatomsColumn
	Variable VariableColumn
	IsFixed  bool
}

// FixedColumn builds a Column wrapping a fixed datoms column.
func FixedColumn(c DatomsColumn) Column { return Column{Fixed: c, IsFixed: true} }

// VarColumn builds a Column naming a projected variable.
func VarColumn(v string) Column { return Column{Variable: VariableColumn{Var: v}} }

// VarTypeTagColumn builds a Column naming a projected variable's type tag.
func VarTypeTagColumn(v string) Column {
	return Column{Variable: VariableColumn{Var: v, TypeTag: true}}
}

// AsStr is the bare SQL column name.
func (c Column) AsStr() string {
	if c.IsFixed {
		return c.Fixed.AsStr()
	}
	return c.Variable.AsStr()
}

// TableAlias is a specific instance of a table within a query, e.g.
// "datoms00".
type TableAlias string

// SourceAlias associates a table with the alias it is bound to in a FROM
// clause, e.g. (Datoms, "datoms00").
type SourceAlias struct {
	Table DatomsTable
	Alias TableAlias
}

// QualifiedAlias is a particular column of a particular aliased table,
// e.g. "datoms00".a.
type QualifiedAlias struct {
	Table  TableAlias
	Column Column
}

// QA is a short constructor for QualifiedAlias.
func QA(table TableAlias, col Column) QualifiedAlias { return QualifiedAlias{Table: table, Column: col} }

// ForTypeTag returns the qualified alias for this column's value-type-tag
// sibling, meaningful only for DatomsColumn-backed tables.
func (q QualifiedAlias) ForTypeTag() QualifiedAlias {
	return QualifiedAlias{Table: q.Table, Column: FixedColumn(ColValueTypeTag)}
}

// QueryValue is a value that can appear on either side of a constraint:
// a column reference, a bare entid, a full typed value, or a primitive
// long (which implicitly constrains the value_type_tag column it sits
// beside, per the Boolean/Long tag-collision guard).
type QueryValue struct {
	kind         queryValueKind
	column       QualifiedAlias
	entid        datalog.Entid
	typedValue   datalog.TypedValue
	primitiveLong int64
}

type queryValueKind int

const (
	qvColumn queryValueKind = iota
	qvEntid
	qvTypedValue
	qvPrimitiveLong
)

// ColumnValue wraps a column reference as a QueryValue.
func ColumnValue(q QualifiedAlias) QueryValue { return QueryValue{kind: qvColumn, column: q} }

// EntidValue wraps a bare entid as a QueryValue.
func EntidValue(e datalog.Entid) QueryValue { return QueryValue{kind: qvEntid, entid: e} }

// TypedValueValue wraps a full typed value as a QueryValue.
func TypedValueValue(v datalog.TypedValue) QueryValue { return QueryValue{kind: qvTypedValue, typedValue: v} }

// PrimitiveLongValue wraps a bare integer literal that constrains a `v`
// column without pinning value_type_tag to exactly Long -- Long and
// Boolean(0/1) both remain possible until a further constraint narrows it.
func PrimitiveLongValue(i int64) QueryValue { return QueryValue{kind: qvPrimitiveLong, primitiveLong: i} }

func (q QueryValue) String() string {
	switch q.kind {
	case qvColumn:
		return fmt.Sprintf("%s.%s", q.column.Table, q.column.Column.AsStr())
	case qvEntid:
		return fmt.Sprintf("entity(%d)", q.entid)
	case qvTypedValue:
		return fmt.Sprintf("value(%s)", q.typedValue)
	case qvPrimitiveLong:
		return fmt.Sprintf("primitive(%d)", q.primitiveLong)
	default:
		return "?"
	}
}

// ColumnOrExpression is one of the things that can appear in a projection
// or a constraint side.
type ColumnOrExpression struct {
	kind  ceKind
	col   QualifiedAlias
	entid datalog.Entid
	value datalog.TypedValue
}

type ceKind int

const (
	ceColumn ceKind = iota
	ceEntid
	ceValue
	ceNull
)

// CENull wraps a bare SQL NULL literal, used to preserve a known-empty
// query's column shape once its FROM clause has collapsed to nothing --
// there's no longer a source table for a real column reference to name.
func CENull() ColumnOrExpression { return ColumnOrExpression{kind: ceNull} }

// CEColumn wraps a column reference.
func CEColumn(q QualifiedAlias) ColumnOrExpression { return ColumnOrExpression{kind: ceColumn, col: q} }

// CEEntid wraps a bare entid literal.
func CEEntid(e datalog.Entid) ColumnOrExpression { return ColumnOrExpression{kind: ceEntid, entid: e} }

// CEValue wraps a typed value literal.
func CEValue(v datalog.TypedValue) ColumnOrExpression { return ColumnOrExpression{kind: ceValue, value: v} }

// CEIntLiteral wraps a bare small integer literal, used for value_type_tag
// equality guards where the "value" isn't really an entid but renders
// identically as a plain SQL integer.
func CEIntLiteral(n int64) ColumnOrExpression {
	return ColumnOrExpression{kind: ceEntid, entid: datalog.Entid(n)}
}

// Kind reports which case this ColumnOrExpression holds.
func (c ColumnOrExpression) Kind() string {
	switch c.kind {
	case ceColumn:
		return "column"
	case ceEntid:
		return "entid"
	case ceNull:
		return "null"
	default:
		return "value"
	}
}

// Column returns the qualified alias, valid when Kind() == "column".
func (c ColumnOrExpression) Column() QualifiedAlias { return c.col }

// EntidLiteral returns the entid, valid when Kind() == "entid".
func (c ColumnOrExpression) EntidLiteral() datalog.Entid { return c.entid }

// ValueLiteral returns the typed value, valid when Kind() == "value".
func (c ColumnOrExpression) ValueLiteral() datalog.TypedValue { return c.value }

// Name is an output column's projected alias.
type Name = string

// ProjectedColumn pairs an expression with the alias it projects as.
type ProjectedColumn struct {
	Expr  ColumnOrExpression
	Alias Name
}

// Projection is what a SELECT's column list looks like.
type Projection struct {
	kind    projectionKind
	columns []ProjectedColumn
}

type projectionKind int

const (
	projColumns projectionKind = iota
	projStar
	projOne
)

// ColumnsProjection builds a Projection listing explicit columns.
func ColumnsProjection(cols []ProjectedColumn) Projection {
	return Projection{kind: projColumns, columns: cols}
}

// StarProjection is SELECT *.
func StarProjection() Projection { return Projection{kind: projStar} }

// OneProjection is SELECT 1, used for EXISTS/NOT EXISTS subqueries.
func OneProjection() Projection { return Projection{kind: projOne} }

// Kind reports which projection case this is: "columns", "star" or "one".
func (p Projection) Kind() string {
	switch p.kind {
	case projColumns:
		return "columns"
	case projStar:
		return "star"
	default:
		return "one"
	}
}

// Columns returns the projected columns, valid when Kind() == "columns".
func (p Projection) Columns() []ProjectedColumn { return p.columns }

// Op is a SQL infix operator. No escaping is required since the set is
// closed and every member is built from a Go string literal.
type Op string

const (
	OpEq  Op = "="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpNe  Op = "<>"
	OpIsNull Op = "IS NULL"
)

// Constraint is one WHERE-clause term.
type Constraint struct {
	kind  constraintKind
	op    Op
	left  ColumnOrExpression
	right ColumnOrExpression
	and   []Constraint
	or    []Constraint
	notExists *SelectQuery
}

type constraintKind int

const (
	cInfix constraintKind = iota
	cAnd
	cOr
	cNotExists
)

// InfixConstraint builds "left op right".
func InfixConstraint(op Op, left, right ColumnOrExpression) Constraint {
	return Constraint{kind: cInfix, op: op, left: left, right: right}
}

// Equal is shorthand for InfixConstraint(OpEq, ...).
func Equal(left, right ColumnOrExpression) Constraint { return InfixConstraint(OpEq, left, right) }

// AndConstraint conjoins several constraints.
func AndConstraint(cs []Constraint) Constraint { return Constraint{kind: cAnd, and: cs} }

// OrConstraint disjoins several constraints.
func OrConstraint(cs []Constraint) Constraint { return Constraint{kind: cOr, or: cs} }

// NotExistsConstraint wraps a correlated subquery in NOT EXISTS.
func NotExistsConstraint(sub *SelectQuery) Constraint {
	return Constraint{kind: cNotExists, notExists: sub}
}

// Kind reports which constraint case this is.
func (c Constraint) Kind() string {
	switch c.kind {
	case cInfix:
		return "infix"
	case cAnd:
		return "and"
	case cOr:
		return "or"
	default:
		return "not_exists"
	}
}

// Infix returns (op, left, right), valid when Kind() == "infix".
func (c Constraint) Infix() (Op, ColumnOrExpression, ColumnOrExpression) {
	return c.op, c.left, c.right
}

// Operands returns the child constraints, valid when Kind() is "and" or
// "or".
func (c Constraint) Operands() []Constraint {
	if c.kind == cAnd {
		return c.and
	}
	return c.or
}

// Subquery returns the correlated subquery, valid when Kind() == "not_exists".
func (c Constraint) Subquery() *SelectQuery { return c.notExists }

// TableList is a set of source aliases joined implicitly (comma-joined,
// constrained entirely by WHERE).
type TableList []SourceAlias

// FromClause is what a SELECT's FROM looks like.
type FromClause struct {
	kind  fromKind
	tables TableList
}

type fromKind int

const (
	fromTableList fromKind = iota
	fromNothing
)

// TableListFrom builds a FromClause of plain joined tables.
func TableListFrom(tables TableList) FromClause {
	return FromClause{kind: fromTableList, tables: tables}
}

// NothingFrom builds the degenerate FROM clause a known-empty query uses.
func NothingFrom() FromClause { return FromClause{kind: fromNothing} }

// Kind reports "table_list" or "nothing".
func (f FromClause) Kind() string {
	if f.kind == fromNothing {
		return "nothing"
	}
	return "table_list"
}

// Tables returns the joined tables, valid when Kind() == "table_list".
func (f FromClause) Tables() TableList { return f.tables }

// SelectQuery is the translator's final relational-algebra output: a
// query the SQL builder can turn directly into SQL text.
type SelectQuery struct {
	Distinct    bool
	Projection  Projection
	From        FromClause
	Constraints []Constraint
	Order       []OrderBy
	Limit       *int64
	// LimitVar holds the bind-parameter name an unbound :limit input
	// variable renders as ("LIMIT $name"), mutually exclusive with Limit.
	LimitVar    *string
	// Computed holds one entry per DatomsTable.Computed(i) referenced in
	// this query's own From: the union of per-branch plans an or/or-join
	// clause compiled down to. A nested subquery carries its own Computed.
	Computed []ComputedTable
	// EmptyBecause, when non-empty, records that this query is known to
	// produce no rows and why -- the query is still well-formed SQL (a
	// WHERE 0 clause) so that callers always get a shape-preserving plan.
	EmptyBecause string
}

// ComputedTable is the union of several independently algebrized branches
// (an or or or-join clause), each contributing one arm of a SQL UNION.
// Every arm projects exactly the same variable columns.
type ComputedTable struct {
	Arms []*SelectQuery
}

// OrderDirection is ascending or descending.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// OrderBy is one ORDER BY term: a direction plus the variable (or that
// variable's type tag) to sort by.
type OrderBy struct {
	Direction OrderDirection
	Column    VariableColumn
}
