// Package sqlbuilder renders a sqlir.SelectQuery to SQL text plus an
// ordered, deduplicated parameter list, the way SQLiteQueryBuilder does in
// the implementation this pipeline is modeled on.
package sqlbuilder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/sqlir"
)

// Param is one bound SQL parameter: its placeholder name and its value,
// ready for a driver's parameter-binding API.
type Param struct {
	Name  string
	Value interface{}
}

// Query is the builder's final output.
type Query struct {
	SQL    string
	Params []Param
}

// Builder accumulates SQL text and deduplicated parameters for strings
// and UUIDs, the two value kinds expensive or error-prone to inline as
// literals.
type Builder struct {
	sql        strings.Builder
	argPrefix  string
	argCounter int64

	stringArgs map[string]string // value -> generated arg name
	uuidArgs   map[string]string // value -> generated arg name
	args       []Param
}

// New builds a Builder using the default "$v" parameter prefix.
func New() *Builder { return WithPrefix("$v") }

// WithPrefix builds a Builder using a caller-chosen parameter prefix.
func WithPrefix(prefix string) *Builder {
	return &Builder{
		argPrefix:  prefix,
		stringArgs: make(map[string]string),
		uuidArgs:   make(map[string]string),
	}
}

// PushSQL appends raw SQL text.
func (b *Builder) PushSQL(sql string) { b.sql.WriteString(sql) }

// PushIdentifier appends a backtick-quoted identifier, doubling any
// embedded backtick.
func (b *Builder) PushIdentifier(identifier string) error {
	b.sql.WriteByte('`')
	b.sql.WriteString(strings.ReplaceAll(identifier, "`", "``"))
	b.sql.WriteByte('`')
	return nil
}

func (b *Builder) nextArgumentName() string {
	name := fmt.Sprintf("%s%d", b.argPrefix, b.argCounter)
	b.argCounter++
	return name
}

func (b *Builder) pushStaticArg(value interface{}) {
	name := b.nextArgumentName()
	b.PushSQL(name)
	b.args = append(b.args, Param{Name: name, Value: value})
}

// PushTypedValue renders a typed value: numeric and ref/boolean/instant
// values are inlined as SQL literals, while strings and UUIDs are pushed
// as deduplicated named parameters (two occurrences of the same string or
// UUID in one query share a single bound parameter).
func (b *Builder) PushTypedValue(v datalog.TypedValue) error {
	switch v.Tag() {
	case datalog.TypeRef:
		b.PushSQL(strconv.FormatInt(int64(v.Ref()), 10))
	case datalog.TypeBoolean:
		if v.Boolean() {
			b.PushSQL("1")
		} else {
			b.PushSQL("0")
		}
	case datalog.TypeLong:
		b.PushSQL(strconv.FormatInt(v.Long(), 10))
	case datalog.TypeDouble:
		b.PushSQL(strconv.FormatFloat(v.Double(), 'g', -1, 64))
	case datalog.TypeInstant:
		b.PushSQL(strconv.FormatInt(v.Instant().UnixMicro(), 10))
	case datalog.TypeUuid:
		u := v.Uuid().String()
		if name, ok := b.uuidArgs[u]; ok {
			b.PushSQL(name)
			return nil
		}
		name := b.nextArgumentName()
		b.PushSQL(name)
		b.uuidArgs[u] = name
	case datalog.TypeString:
		s := v.Str()
		if name, ok := b.stringArgs[s]; ok {
			b.PushSQL(name)
			return nil
		}
		name := b.nextArgumentName()
		b.PushSQL(name)
		b.stringArgs[s] = name
	case datalog.TypeKeyword:
		b.pushStaticArg(v.KeywordVal().String())
	default:
		return newBuildError(ErrCodeInvalidParameterName, "cannot render value of tag %s", v.Tag())
	}
	return nil
}

// PushBindParam appends a user-named bind parameter ("$name"), used for
// :in-bound scalar inputs threaded straight through to SQL. name must be
// alphanumeric/underscore and must not collide with the generated
// parameter namespace.
func (b *Builder) PushBindParam(name string) error {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return newBuildError(ErrCodeInvalidParameterName, "invalid parameter name %q", name)
		}
	}
	bareprefix := strings.TrimPrefix(b.argPrefix, "$")
	if strings.HasPrefix(name, bareprefix) {
		rest := strings.TrimPrefix(name, bareprefix)
		if rest != "" && isAllDigits(rest) {
			return newBuildError(ErrCodeBindParamCouldBeGenerated, "parameter name could be generated: %q", name)
		}
	}
	b.PushSQL("$" + name)
	return nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Finish collects every pushed argument -- static, string and UUID -- into
// one parameter list sorted lexically by name, so "$v0" precedes "$v1"
// precedes "$v10" precedes "$v2" (plain string order, not allocation order).
func (b *Builder) Finish() Query {
	args := make([]Param, len(b.args))
	copy(args, b.args)
	for val, name := range b.stringArgs {
		args = append(args, Param{Name: name, Value: val})
	}
	for val, name := range b.uuidArgs {
		u := uuid.MustParse(val)
		args = append(args, Param{Name: name, Value: u[:]})
	}
	sort.Slice(args, func(i, j int) bool { return args[i].Name < args[j].Name })
	return Query{SQL: b.sql.String(), Params: args}
}

// Build renders a complete SelectQuery to SQL text and parameters.
func Build(q *sqlir.SelectQuery) (Query, error) {
	b := New()
	if err := pushSelectQuery(b, q); err != nil {
		return Query{}, err
	}
	return b.Finish(), nil
}

func pushSelectQuery(b *Builder, q *sqlir.SelectQuery) error {
	b.PushSQL("SELECT ")
	if q.Distinct {
		b.PushSQL("DISTINCT ")
	}
	if err := pushProjection(b, q.Projection); err != nil {
		return err
	}

	b.PushSQL(" FROM ")
	if err := pushFromClause(b, q.From, q.Computed); err != nil {
		return err
	}

	if len(q.Constraints) > 0 {
		b.PushSQL(" WHERE ")
		for i, c := range q.Constraints {
			if i > 0 {
				b.PushSQL(" AND ")
			}
			if err := pushConstraint(b, c); err != nil {
				return err
			}
		}
	}

	if len(q.Order) > 0 {
		b.PushSQL(" ORDER BY ")
		for i, o := range q.Order {
			if i > 0 {
				b.PushSQL(", ")
			}
			if err := b.PushIdentifier(o.Column.AsStr()); err != nil {
				return err
			}
			if o.Direction == sqlir.Desc {
				b.PushSQL(" DESC")
			} else {
				b.PushSQL(" ASC")
			}
		}
	}

	if q.Limit != nil {
		b.PushSQL(" LIMIT ")
		b.PushSQL(strconv.FormatInt(*q.Limit, 10))
	} else if q.LimitVar != nil {
		b.PushSQL(" LIMIT ")
		if err := b.PushBindParam(*q.LimitVar); err != nil {
			return err
		}
	}

	return nil
}

func pushProjection(b *Builder, p sqlir.Projection) error {
	switch p.Kind() {
	case "one":
		b.PushSQL("1")
		return nil
	case "star":
		b.PushSQL("*")
		return nil
	default:
		cols := p.Columns()
		for i, pc := range cols {
			if i > 0 {
				b.PushSQL(", ")
			}
			if err := pushColumnOrExpression(b, pc.Expr); err != nil {
				return err
			}
			b.PushSQL(" AS ")
			if err := b.PushIdentifier(pc.Alias); err != nil {
				return err
			}
		}
		return nil
	}
}

func pushColumnOrExpression(b *Builder, c sqlir.ColumnOrExpression) error {
	switch c.Kind() {
	case "column":
		qa := c.Column()
		if err := b.PushIdentifier(string(qa.Table)); err != nil {
			return err
		}
		b.PushSQL(".")
		b.PushSQL(qa.Column.AsStr())
		return nil
	case "entid":
		b.PushSQL(strconv.FormatInt(int64(c.EntidLiteral()), 10))
		return nil
	case "null":
		b.PushSQL("NULL")
		return nil
	default:
		return b.PushTypedValue(c.ValueLiteral())
	}
}

func pushFromClause(b *Builder, f sqlir.FromClause, computed []sqlir.ComputedTable) error {
	if f.Kind() == "nothing" {
		b.PushSQL("(SELECT 1 WHERE 0)")
		return nil
	}
	tables := f.Tables()
	for i, sa := range tables {
		if i > 0 {
			b.PushSQL(", ")
		}
		if sa.Table.IsComputed() {
			if err := pushComputedTable(b, computed[sa.Table.Computed]); err != nil {
				return err
			}
		} else {
			if err := b.PushIdentifier(sa.Table.Name()); err != nil {
				return err
			}
		}
		b.PushSQL(" AS ")
		if err := b.PushIdentifier(string(sa.Alias)); err != nil {
			return err
		}
	}
	return nil
}

func pushComputedTable(b *Builder, ct sqlir.ComputedTable) error {
	b.PushSQL("(")
	for i, arm := range ct.Arms {
		if i > 0 {
			b.PushSQL(" UNION ")
		}
		if err := pushSelectQuery(b, arm); err != nil {
			return err
		}
	}
	b.PushSQL(")")
	return nil
}

func pushConstraint(b *Builder, c sqlir.Constraint) error {
	switch c.Kind() {
	case "infix":
		op, left, right := c.Infix()
		if err := pushColumnOrExpression(b, left); err != nil {
			return err
		}
		b.PushSQL(" ")
		b.PushSQL(string(op))
		b.PushSQL(" ")
		return pushColumnOrExpression(b, right)
	case "and":
		b.PushSQL("(")
		if err := pushJoinedConstraints(b, c.Operands(), " AND "); err != nil {
			return err
		}
		b.PushSQL(")")
		return nil
	case "or":
		b.PushSQL("(")
		if err := pushJoinedConstraints(b, c.Operands(), " OR "); err != nil {
			return err
		}
		b.PushSQL(")")
		return nil
	default:
		b.PushSQL("NOT EXISTS (")
		if err := pushSelectQuery(b, c.Subquery()); err != nil {
			return err
		}
		b.PushSQL(")")
		return nil
	}
}

func pushJoinedConstraints(b *Builder, cs []sqlir.Constraint, sep string) error {
	for i, inner := range cs {
		if i > 0 {
			b.PushSQL(sep)
		}
		if err := pushConstraint(b, inner); err != nil {
			return err
		}
	}
	return nil
}
