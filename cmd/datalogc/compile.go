package main

import (
	"fmt"

	"github.com/relidb/relidb/datalog"
	"github.com/relidb/relidb/datalog/algebrizer"
	"github.com/relidb/relidb/datalog/parser"
	"github.com/relidb/relidb/datalog/query"
	"github.com/relidb/relidb/datalog/sqlbuilder"
	"github.com/relidb/relidb/datalog/translator"
	"github.com/spf13/cobra"
)

func newCompileCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to SQL and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := compileQuery(root, args[0])
			if err != nil {
				return err
			}
			fmt.Println(out.SQL)
			for _, p := range out.Params {
				fmt.Printf("  %s = %v\n", p.Name, p.Value)
			}
			return nil
		},
	}
}

func compileQuery(root *rootOptions, src string) (sqlbuilder.Query, error) {
	sch, err := buildSchema(root.Attrs)
	if err != nil {
		return sqlbuilder.Query{}, err
	}

	inputs, err := buildInputs(root.Inputs)
	if err != nil {
		return sqlbuilder.Query{}, err
	}

	q, err := parser.Parse(src)
	if err != nil {
		return sqlbuilder.Query{}, fmt.Errorf("parse: %w", err)
	}

	cc, err := algebrizer.Algebrize(sch, q)
	if err != nil {
		return sqlbuilder.Query{}, fmt.Errorf("algebrize: %w", err)
	}

	sel, err := translator.Translate(cc, q, inputs)
	if err != nil {
		return sqlbuilder.Query{}, fmt.Errorf("translate: %w", err)
	}

	return sqlbuilder.Build(sel)
}

func buildInputs(flags []string) (map[query.Variable]datalog.TypedValue, error) {
	inputs := make(map[query.Variable]datalog.TypedValue, len(flags))
	for _, f := range flags {
		name, v, err := parseInputFlag(f)
		if err != nil {
			return nil, err
		}
		inputs[query.Variable(name)] = v
	}
	return inputs, nil
}
