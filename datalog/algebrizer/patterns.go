package algebrizer

import (
	"fmt"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/schema"
	"github.com/relidb/relidb/datalog/sqlir"
)

// addPattern resolves one [e a v tx?] pattern against the schema: it picks
// a fixed-vs-fulltext table, allocates a fresh alias, binds or constrains
// each of the four positions, and narrows the value position's known type
// to whatever the attribute declares. An attribute position left
// unresolved (a bound variable or the placeholder) takes the slower path
// of scanning the bare datoms table with no declared value type to lean
// on.
func (cc *ConjoiningClauses) addPattern(p query.DataPattern) error {
	canon, err := p.Canonical()
	if err != nil {
		return newError(ErrCodeInvalidReversal, "%s", err)
	}

	if canon.A.IsConst {
		return cc.addResolvedPattern(canon)
	}
	return cc.addUnresolvedAttrPattern(canon)
}

// addResolvedPattern resolves a pattern whose attribute position is a
// constant ident. An ident the schema has never heard of can never match a
// stored datom, so rather than abort the whole query it marks the CC
// known-empty and leaves it otherwise untouched -- algebrization of any
// sibling clauses continues normally, and the translator renders the
// degenerate empty plan.
func (cc *ConjoiningClauses) addResolvedPattern(canon query.DataPattern) error {
	attr, ok := cc.Schema.AttributeByIdent(canon.A.Const)
	if !ok {
		cc.MarkKnownEmpty(fmt.Sprintf("attribute %s is not in the schema", canon.A.Const))
		return nil
	}
	if attr.Fulltext && !valuePositionIsStringlike(canon.V) {
		cc.MarkKnownEmpty("fulltext attribute requires a string-typed value")
	}

	table := sqlir.FixedTable(tableFor(attr))
	alias := cc.nextAlias(table)
	cc.From = append(cc.From, sqlir.SourceAlias{Table: table, Alias: alias})

	cc.bindPosition(alias, sqlir.ColEntity, canon.E, datalog.UnitValueTypeSet(datalog.TypeRef))
	cc.bindConstant(sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColAttribute)), datalog.RefValue(attr.Entid))

	cc.bindValuePosition(alias, attr, canon.V)

	if canon.Tx != nil {
		cc.bindPosition(alias, sqlir.ColTx, *canon.Tx, datalog.UnitValueTypeSet(datalog.TypeRef))
	}
	return nil
}

// bindValuePosition binds a pattern's value position against its
// attribute's declared type. A ref-typed attribute stores entids, not
// keyword text, so a constant ident in value position must first be
// resolved through the schema to the entid it names; an ident the schema
// doesn't know marks the CC known-empty rather than comparing a ref column
// to keyword text, which would be vacuously false at runtime anyway.
func (cc *ConjoiningClauses) bindValuePosition(alias sqlir.TableAlias, attr schema.Attribute, v query.PatternValue) {
	if attr.ValueType == datalog.TypeRef && v.IsConst && v.Const.Tag() == datalog.TypeKeyword {
		entid, ok := cc.Schema.EntidForIdent(v.Const.KeywordVal())
		if !ok {
			cc.MarkKnownEmpty(fmt.Sprintf("ident %s is not in the schema", v.Const.KeywordVal()))
			return
		}
		cc.bindConstant(sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColValue)), datalog.RefValue(entid))
		return
	}

	cc.bindPosition(alias, sqlir.ColValue, v, datalog.UnitValueTypeSet(attr.ValueType))
}

// addUnresolvedAttrPattern handles a pattern whose attribute position is a
// variable or the placeholder: there is no declared value type to narrow
// against, so the value position keeps its full type set and a bare long
// 0/1 literal must carry an explicit Boolean-exclusion guard.
func (cc *ConjoiningClauses) addUnresolvedAttrPattern(canon query.DataPattern) error {
	table := sqlir.FixedTable(sqlir.Datoms)
	if canon.V.IsConst && canon.V.Const.Tag() == datalog.TypeString {
		table = sqlir.FixedTable(sqlir.AllDatoms)
	}
	alias := cc.nextAlias(table)
	cc.From = append(cc.From, sqlir.SourceAlias{Table: table, Alias: alias})

	cc.bindPosition(alias, sqlir.ColEntity, canon.E, datalog.UnitValueTypeSet(datalog.TypeRef))

	aQA := sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColAttribute))
	if canon.A.Var != query.PlaceholderVar {
		cc.bindVar(canon.A.Var, aQA)
	}

	vQA := sqlir.QA(alias, sqlir.FixedColumn(sqlir.ColValue))
	switch {
	case !canon.V.IsConst:
		cc.bindVar(canon.V.Var, vQA)
		cc.narrowType(canon.V.Var, datalog.AnyValueType)
	case canon.V.Const.Tag() == datalog.TypeLong && isBooleanRange(canon.V.Const.Long()):
		cc.bindConstantWithBooleanGuard(vQA, canon.V.Const)
	default:
		cc.bindConstant(vQA, canon.V.Const)
	}

	if canon.Tx != nil {
		cc.bindPosition(alias, sqlir.ColTx, *canon.Tx, datalog.UnitValueTypeSet(datalog.TypeRef))
	}
	return nil
}

func isBooleanRange(i int64) bool { return i == 0 || i == 1 }

func valuePositionIsStringlike(v query.PatternValue) bool {
	if !v.IsConst {
		return true // a variable value may still resolve to a string at runtime
	}
	return v.Const.Tag() == datalog.TypeString
}

// bindPosition resolves one pattern element (e, a value position, or tx)
// against a column: a variable either binds or unifies, a constant adds a
// plain equality.
func (cc *ConjoiningClauses) bindPosition(alias sqlir.TableAlias, col sqlir.DatomsColumn, pv query.PatternValue, allowed datalog.ValueTypeSet) {
	qa := sqlir.QA(alias, sqlir.FixedColumn(col))
	if pv.IsConst {
		cc.bindConstant(qa, pv.Const)
		return
	}
	cc.bindVar(pv.Var, qa)
	cc.narrowType(pv.Var, allowed)
}

func tableFor(attr schema.Attribute) sqlir.DatomsFixedTable {
	if attr.Fulltext {
		return sqlir.AllDatoms
	}
	return sqlir.Datoms
}
