// Package parser turns an EDN node tree into a query.Query: the :find,
// :in, :with, :where, :order-by and :limit clauses of the surface syntax,
// validated but not yet algebrized.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/edn"
	"github.com/relidb/relidb/datalog/query"
)

var knownSections = map[string]bool{
	"find": true, "in": true, "where": true,
	"order-by": true, "limit": true, "with": true,
}

// Parse lexes and parses a query given as EDN text.
func Parse(input string) (*query.Query, error) {
	node, err := edn.Parse(input)
	if err != nil {
		return nil, newParseError(ErrCodeInvalidInput, "%v", err)
	}
	return ParseNode(node)
}

// ParseNode parses a query already read into an EDN node tree, either in
// map form ({:find [...] :where [...]}) or vector form
// ([:find ... :where ...]).
func ParseNode(node *edn.Node) (*query.Query, error) {
	sections, err := splitSections(node)
	if err != nil {
		return nil, err
	}

	findItems, ok := sections["find"]
	if !ok {
		return nil, newParseError(ErrCodeMissingFind, "query is missing a :find clause")
	}
	findSpec, err := parseFindSpec(findItems)
	if err != nil {
		return nil, err
	}

	whereItems, ok := sections["where"]
	if !ok {
		return nil, newParseError(ErrCodeMissingWhere, "query is missing a :where clause")
	}
	whereClauses, err := parseClauses(whereItems)
	if err != nil {
		return nil, err
	}

	inSpecs, err := parseInSpecs(sections["in"])
	if err != nil {
		return nil, err
	}

	withVars, err := parseVars(sections["with"])
	if err != nil {
		return nil, err
	}

	orderBy, err := parseOrderBy(sections["order-by"])
	if err != nil {
		return nil, err
	}

	limit, err := parseLimit(sections["limit"])
	if err != nil {
		return nil, err
	}

	if err := checkDuplicateVars(findSpec.Vars); err != nil {
		return nil, err
	}

	return &query.Query{
		Find:    findSpec,
		In:      inSpecs,
		With:    withVars,
		Where:   whereClauses,
		OrderBy: orderBy,
		Limit:   limit,
	}, nil
}

func checkDuplicateVars(vars []query.Variable) error {
	seen := make(map[query.Variable]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return newParseError(ErrCodeDuplicateVar, "variable %s bound more than once in :find", v)
		}
		seen[v] = true
	}
	return nil
}

// splitSections groups a query's top-level nodes by clause keyword,
// accepting both map form (where each clause value is given directly) and
// vector form (where clause items follow their keyword until the next
// known keyword).
func splitSections(node *edn.Node) (map[string][]edn.Node, error) {
	result := make(map[string][]edn.Node)

	switch node.Type {
	case edn.NodeMap:
		for i := 0; i+1 < len(node.Nodes); i += 2 {
			key := node.Nodes[i]
			val := node.Nodes[i+1]
			if key.Type != edn.NodeKeyword {
				return nil, newParseError(ErrCodeInvalidClause, "query map keys must be keywords")
			}
			name := strings.TrimPrefix(key.Value, ":")
			if !knownSections[name] {
				return nil, newParseError(ErrCodeInvalidClause, "unknown query clause :%s", name)
			}
			if val.Type == edn.NodeVector {
				result[name] = val.Nodes
			} else {
				result[name] = []edn.Node{val}
			}
		}

	case edn.NodeVector:
		current := ""
		for _, it := range node.Nodes {
			if it.Type == edn.NodeKeyword {
				name := strings.TrimPrefix(it.Value, ":")
				if knownSections[name] {
					current = name
					if _, ok := result[current]; !ok {
						result[current] = []edn.Node{}
					}
					continue
				}
			}
			if current == "" {
				return nil, newParseError(ErrCodeInvalidClause, "query must begin with a clause keyword such as :find")
			}
			result[current] = append(result[current], it)
		}

	default:
		return nil, newParseError(ErrCodeInvalidInput, "query must be an EDN vector or map")
	}

	return result, nil
}

func parseFindSpec(items []edn.Node) (query.FindSpec, error) {
	if len(items) == 0 {
		return query.FindSpec{}, newParseError(ErrCodeInvalidFind, ":find clause must name at least one variable")
	}

	if len(items) == 1 && items[0].Type == edn.NodeVector {
		inner := items[0].Nodes
		if len(inner) == 2 && isEllipsis(inner[1]) {
			v, err := parseVariable(inner[0])
			if err != nil {
				return query.FindSpec{}, err
			}
			return query.FindSpec{Kind: query.FindColl, Vars: []query.Variable{v}}, nil
		}
		vars, err := parseVars(inner)
		if err != nil {
			return query.FindSpec{}, err
		}
		return query.FindSpec{Kind: query.FindTuple, Vars: vars}, nil
	}

	if len(items) == 2 && isDot(items[1]) {
		v, err := parseVariable(items[0])
		if err != nil {
			return query.FindSpec{}, err
		}
		return query.FindSpec{Kind: query.FindScalar, Vars: []query.Variable{v}}, nil
	}

	vars, err := parseVars(items)
	if err != nil {
		return query.FindSpec{}, err
	}
	return query.FindSpec{Kind: query.FindRelation, Vars: vars}, nil
}

func isDot(n edn.Node) bool {
	return n.Type == edn.NodeSymbol && n.Value == "."
}

func isEllipsis(n edn.Node) bool {
	return n.Type == edn.NodeSymbol && n.Value == "..."
}

func parseVars(items []edn.Node) ([]query.Variable, error) {
	vars := make([]query.Variable, 0, len(items))
	for _, it := range items {
		v, err := parseVariable(it)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func parseVariable(n edn.Node) (query.Variable, error) {
	if n.Type != edn.NodeSymbol || !strings.HasPrefix(n.Value, "?") {
		return "", newParseError(ErrCodeNotAVariable, "expected a variable (?name), got %q", n.Value)
	}
	return query.Variable(strings.TrimPrefix(n.Value, "?")), nil
}

func parseClauses(items []edn.Node) ([]query.Clause, error) {
	clauses := make([]query.Clause, 0, len(items))
	for _, it := range items {
		c, err := parseClause(it)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func parseClause(n edn.Node) (query.Clause, error) {
	switch n.Type {
	case edn.NodeVector:
		// [(op arg...)] is the vector-wrapped predicate form.
		if len(n.Nodes) == 1 && n.Nodes[0].Type == edn.NodeList {
			return parseListClause(n.Nodes[0])
		}
		return parseDataPattern(n)
	case edn.NodeList:
		return parseListClause(n)
	default:
		return nil, newParseError(ErrCodeInvalidClause, "clause must be a pattern vector or a form list")
	}
}

func parseListClause(n edn.Node) (query.Clause, error) {
	if len(n.Nodes) == 0 {
		return nil, newParseError(ErrCodeInvalidClause, "empty clause form")
	}
	head := n.Nodes[0]
	if head.Type != edn.NodeSymbol {
		return nil, newParseError(ErrCodeInvalidClause, "clause form must begin with a symbol")
	}

	switch head.Value {
	case "and":
		clauses, err := parseClauses(n.Nodes[1:])
		if err != nil {
			return nil, err
		}
		return query.And{Clauses: clauses}, nil

	case "or":
		clauses, err := parseClauses(n.Nodes[1:])
		if err != nil {
			return nil, err
		}
		return query.Or{Clauses: clauses}, nil

	case "or-join":
		vars, rest, err := parseJoinVars(n.Nodes[1:])
		if err != nil {
			return nil, err
		}
		clauses, err := parseClauses(rest)
		if err != nil {
			return nil, err
		}
		return query.OrJoin{Vars: vars, Clauses: clauses}, nil

	case "not":
		clauses, err := parseClauses(n.Nodes[1:])
		if err != nil {
			return nil, err
		}
		return query.Not{Clauses: clauses}, nil

	case "not-join":
		vars, rest, err := parseJoinVars(n.Nodes[1:])
		if err != nil {
			return nil, err
		}
		clauses, err := parseClauses(rest)
		if err != nil {
			return nil, err
		}
		return query.NotJoin{Vars: vars, Clauses: clauses}, nil

	case string(query.OpLessThan), string(query.OpLessEq), string(query.OpGreaterThan),
		string(query.OpGreaterEq), string(query.OpNotEqual):
		args := make([]query.PatternValue, 0, len(n.Nodes)-1)
		for _, a := range n.Nodes[1:] {
			pv, err := parsePatternValue(a)
			if err != nil {
				return nil, err
			}
			args = append(args, pv)
		}
		return query.Predicate{Op: query.CompareOp(head.Value), Args: args}, nil

	default:
		return nil, newParseError(ErrCodeInvalidClause, "unknown clause form %q", head.Value)
	}
}

func parseJoinVars(items []edn.Node) ([]query.Variable, []edn.Node, error) {
	if len(items) == 0 || items[0].Type != edn.NodeVector {
		return nil, nil, newParseError(ErrCodeInvalidClause, "join clause must start with a [?var ...] vector")
	}
	vars, err := parseVars(items[0].Nodes)
	if err != nil {
		return nil, nil, err
	}
	return vars, items[1:], nil
}

func parseDataPattern(n edn.Node) (query.DataPattern, error) {
	items := n.Nodes
	idx := 0

	var src query.SrcVar
	hasSrc := false
	if len(items) > 0 && items[0].Type == edn.NodeSymbol && strings.HasPrefix(items[0].Value, "$") {
		src = query.SrcVar(strings.TrimPrefix(items[0].Value, "$"))
		hasSrc = true
		idx++
	}

	if len(items)-idx < 3 {
		return query.DataPattern{}, newParseError(ErrCodeInvalidPattern, "data pattern needs at least entity, attribute and value")
	}

	e, err := parsePatternValue(items[idx])
	if err != nil {
		return query.DataPattern{}, err
	}

	a, err := parseAttrPattern(items[idx+1])
	if err != nil {
		return query.DataPattern{}, err
	}

	v, err := parsePatternValue(items[idx+2])
	if err != nil {
		return query.DataPattern{}, err
	}

	var txPtr *query.PatternValue
	if len(items) > idx+3 {
		tx, err := parsePatternValue(items[idx+3])
		if err != nil {
			return query.DataPattern{}, err
		}
		txPtr = &tx
	}

	return query.DataPattern{Src: src, HasSrc: hasSrc, E: e, A: a, V: v, Tx: txPtr}, nil
}

// parseAttrPattern parses a pattern's attribute position: a namespaced
// keyword ident (the common case), or a variable/placeholder left
// unresolved for the algebrizer to scan the bare datoms table against.
func parseAttrPattern(n edn.Node) (query.AttrPattern, error) {
	if n.Type == edn.NodeKeyword {
		kw, err := datalog.ParseKeyword(n.Value)
		if err != nil {
			return query.AttrPattern{}, newParseError(ErrCodeInvalidKeyword, "%v", err)
		}
		return query.ConstAttrPattern(kw), nil
	}
	if n.Type == edn.NodeSymbol {
		if n.Value == "_" {
			return query.VarAttrPattern(query.PlaceholderVar), nil
		}
		if strings.HasPrefix(n.Value, "?") {
			return query.VarAttrPattern(query.Variable(strings.TrimPrefix(n.Value, "?"))), nil
		}
	}
	return query.AttrPattern{}, newParseError(ErrCodeInvalidPattern, "pattern attribute position must be a keyword, variable or _")
}

func parsePatternValue(n edn.Node) (query.PatternValue, error) {
	if n.Type == edn.NodeSymbol {
		if n.Value == "_" {
			return query.VarPatternValue(query.PlaceholderVar), nil
		}
		if strings.HasPrefix(n.Value, "?") {
			return query.VarPatternValue(query.Variable(strings.TrimPrefix(n.Value, "?"))), nil
		}
		return query.PatternValue{}, newParseError(ErrCodeNotAVariable, "bare symbol %q is not a variable", n.Value)
	}
	tv, err := nodeToTypedValue(n)
	if err != nil {
		return query.PatternValue{}, err
	}
	return query.ConstPatternValue(tv), nil
}

func nodeToTypedValue(n edn.Node) (datalog.TypedValue, error) {
	switch n.Type {
	case edn.NodeInt:
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "invalid integer literal %q", n.Value)
		}
		return datalog.LongValue(i), nil
	case edn.NodeFloat:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "invalid float literal %q", n.Value)
		}
		return datalog.DoubleValue(f), nil
	case edn.NodeString:
		return datalog.StringValue(n.Value), nil
	case edn.NodeBool:
		return datalog.BooleanValue(n.Value == "true"), nil
	case edn.NodeKeyword:
		kw, err := datalog.ParseKeyword(n.Value)
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidKeyword, "%v", err)
		}
		return datalog.KeywordValue(kw), nil
	case edn.NodeTagged:
		return taggedToTypedValue(n)
	default:
		return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "unsupported literal of type %v", n.Type)
	}
}

func taggedToTypedValue(n edn.Node) (datalog.TypedValue, error) {
	if n.Tagged == nil {
		return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "tagged literal #%s has no value", n.Tag)
	}
	switch n.Tag {
	case "uuid":
		s, err := n.Tagged.AsString()
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "#uuid literal must be a string")
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "invalid #uuid literal %q", s)
		}
		return datalog.UuidValue(u), nil
	case "inst":
		s, err := n.Tagged.AsString()
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "#inst literal must be a string")
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "invalid #inst literal %q", s)
		}
		return datalog.InstantValue(t), nil
	default:
		return datalog.TypedValue{}, newParseError(ErrCodeInvalidValue, "unsupported tagged literal #%s", n.Tag)
	}
}

func parseInSpecs(items []edn.Node) ([]query.InputSpec, error) {
	specs := make([]query.InputSpec, 0, len(items))
	for _, it := range items {
		spec, err := parseInputSpec(it)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseInputSpec(n edn.Node) (query.InputSpec, error) {
	if n.Type == edn.NodeSymbol {
		if strings.HasPrefix(n.Value, "$") {
			return query.InputSpec{Src: query.SrcVar(strings.TrimPrefix(n.Value, "$")), IsSrc: true}, nil
		}
		v, err := parseVariable(n)
		if err != nil {
			return query.InputSpec{}, err
		}
		return query.InputSpec{Scalar: v, IsScalar: true}, nil
	}
	if n.Type == edn.NodeVector {
		inner := n.Nodes
		if len(inner) == 2 && isEllipsis(inner[1]) {
			v, err := parseVariable(inner[0])
			if err != nil {
				return query.InputSpec{}, err
			}
			return query.InputSpec{Collection: v, IsColl: true}, nil
		}
		vars, err := parseVars(inner)
		if err != nil {
			return query.InputSpec{}, err
		}
		return query.InputSpec{Tuple: vars, IsTuple: true}, nil
	}
	return query.InputSpec{}, newParseError(ErrCodeInvalidInput, "invalid :in binding form")
}

func parseOrderBy(items []edn.Node) ([]query.OrderBy, error) {
	var result []query.OrderBy
	i := 0
	for i < len(items) {
		it := items[i]
		if it.Type == edn.NodeVector && len(it.Nodes) == 2 {
			v, err := parseVariable(it.Nodes[0])
			if err != nil {
				return nil, err
			}
			dir, err := parseOrderDirection(it.Nodes[1])
			if err != nil {
				return nil, err
			}
			result = append(result, query.OrderBy{Var: v, Direction: dir})
			i++
			continue
		}
		v, err := parseVariable(it)
		if err != nil {
			return nil, err
		}
		dir := query.Ascending
		if i+1 < len(items) && items[i+1].Type == edn.NodeKeyword {
			dir, err = parseOrderDirection(items[i+1])
			if err != nil {
				return nil, err
			}
			i++
		}
		result = append(result, query.OrderBy{Var: v, Direction: dir})
		i++
	}
	return result, nil
}

func parseOrderDirection(n edn.Node) (query.OrderDirection, error) {
	if n.Type != edn.NodeKeyword {
		return 0, newParseError(ErrCodeInvalidOrderBy, ":order-by direction must be :asc or :desc")
	}
	switch strings.TrimPrefix(n.Value, ":") {
	case "asc":
		return query.Ascending, nil
	case "desc":
		return query.Descending, nil
	default:
		return 0, newParseError(ErrCodeInvalidOrderBy, "unknown :order-by direction %q", n.Value)
	}
}

func parseLimit(items []edn.Node) (*query.Limit, error) {
	if len(items) == 0 {
		return nil, nil
	}
	n := items[0]
	if n.Type == edn.NodeInt {
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, newParseError(ErrCodeInvalidLimit, "invalid :limit literal %q", n.Value)
		}
		if i <= 0 {
			return nil, newParseError(ErrCodeInvalidLimit, ":limit must be a positive integer")
		}
		return &query.Limit{N: i}, nil
	}
	v, err := parseVariable(n)
	if err != nil {
		return nil, newParseError(ErrCodeInvalidLimit, ":limit must be a positive integer or a bound variable")
	}
	return &query.Limit{IsVar: true, Var: v}, nil
}
