// Command datalogc is a thin demonstration CLI around the Datalog-to-SQL
// pipeline: it parses a query, algebrizes it against a schema assembled
// from --attr flags, translates and builds the SQL, and prints the
// result. It does not execute anything against a real database -- the
// relational engine remains an external collaborator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	Attrs  []string
	Inputs []string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "datalogc",
		Short: "Compile Datalog queries to SQL",
		Long: `datalogc parses and compiles Datalog queries to SQL without executing
them, for inspecting what the pipeline produces.

Example:
  datalogc compile --attr person/name:string '[:find ?x :where [?x :person/name "Alice"]]'
  datalogc explain --attr person/age:long '[:find ?x . :where [?x :person/age ?a] [(> ?a 30)]]'`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringArrayVar(&opts.Attrs, "attr", nil, "schema attribute as ns/name:type[:flag...], flags many, unique, index, fulltext, component (repeatable)")
	cmd.PersistentFlags().StringArrayVar(&opts.Inputs, "in", nil, "bound :in value as name=value (repeatable)")

	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newExplainCommand(opts))

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
