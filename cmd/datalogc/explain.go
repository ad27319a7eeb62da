package main

import (
	"os"

	"github.com/relidb/relidb/datalog/explain"
	"github.com/relidb/relidb/datalog/parser"
	"github.com/spf13/cobra"
)

func newExplainCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <query>",
		Short: "Compile a query and render its SQL, parameters and known-empty reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := buildSchema(root.Attrs)
			if err != nil {
				return err
			}
			inputs, err := buildInputs(root.Inputs)
			if err != nil {
				return err
			}

			q, err := parser.Parse(args[0])
			if err != nil {
				return err
			}

			report, err := explain.Compile(sch, q, inputs)
			if err != nil {
				return err
			}

			explain.Print(os.Stdout, report)
			return nil
		},
	}
}
