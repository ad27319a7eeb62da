// Package explain renders a compiled query for human inspection: the SQL
// text the builder produced, its bound parameters, and -- when
// algebrization proved the query can never return a row -- the
// known-empty reason instead of a plan. It never executes anything; the
// relational engine remains an external collaborator (see spec.md §1/§5).
package explain

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/algebrizer"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/schema"
	"github.com/relidb/relidb/datalog/sqlbuilder"
	"github.com/relidb/relidb/datalog/translator"
)

// Report is the fully compiled diagnostic for one query: the SQL and
// parameters the builder emitted, plus the find spec's projected
// variables for column labeling.
type Report struct {
	SQL          string
	Params       []sqlbuilder.Param
	Vars         []query.Variable
	KnownEmpty   bool
	EmptyBecause string
}

// Compile runs a parsed query through the algebrizer, translator and
// builder, and captures the result as a Report. inputs supplies :in
// bindings, consulted only to resolve a :limit that names an input
// variable.
func Compile(sch *schema.Schema, q *query.Query, inputs map[query.Variable]datalog.TypedValue) (*Report, error) {
	cc, err := algebrizer.Algebrize(sch, q)
	if err != nil {
		return nil, err
	}
	sel, err := translator.Translate(cc, q, inputs)
	if err != nil {
		return nil, err
	}
	out, err := sqlbuilder.Build(sel)
	if err != nil {
		return nil, err
	}
	return &Report{
		SQL:          out.SQL,
		Params:       out.Params,
		Vars:         q.Find.Vars,
		KnownEmpty:   cc.IsKnownEmpty(),
		EmptyBecause: cc.EmptyBecause,
	}, nil
}

// Print renders a Report to w: the compiled SQL in a highlighted block,
// the known-empty reason if there is one, and a table of bound
// parameters, mirroring how the teacher's table_formatter.go renders a
// relation -- adapted here to render a compiled plan instead of
// execution results.
func Print(w io.Writer, r *Report) {
	sqlLabel := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s\n%s\n\n", sqlLabel("SQL:"), r.SQL)

	if r.KnownEmpty {
		warn := color.New(color.FgYellow, color.Bold).SprintFunc()
		fmt.Fprintf(w, "%s %s\n\n", warn("known empty:"), r.EmptyBecause)
	}

	if len(r.Params) == 0 {
		fmt.Fprintln(w, "_No parameters_")
		return
	}

	tableString := &strings.Builder{}
	table := tablewriter.NewTable(tableString)
	table.Header([]string{"Name", "Value"})
	for _, p := range r.Params {
		table.Append([]string{p.Name, fmt.Sprintf("%v", p.Value)})
	}
	table.Render()
	fmt.Fprint(w, tableString.String())
}
