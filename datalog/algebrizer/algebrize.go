package algebrizer

import (
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/schema"
)

// Algebrize walks every :where clause of a parsed query against sch,
// returning the finished ConjoiningClauses for the translator to turn into
// a SelectQuery. Algebrization never aborts on an unsatisfiable
// constraint -- it records the first reason in EmptyBecause and keeps
// building a well-formed (if never-matching) accumulator, so a caller
// always gets back a plan it can translate and explain.
func Algebrize(sch *schema.Schema, q *query.Query) (*ConjoiningClauses, error) {
	cc := New(sch)
	for _, c := range q.Where {
		if err := cc.addClause(c); err != nil {
			return nil, err
		}
	}
	return cc, nil
}
