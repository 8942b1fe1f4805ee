package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/catsite/internal/interp"
	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/querysql"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Config  string
	Table   string
	Dialect string
	Page    int64
}

// PlanResult is the query a from_table block would issue.
type PlanResult struct {
	Table   string            `json:"table"`
	SQL     string            `json:"sql"`
	Aliases map[string]string `json:"aliases"`
	Dropped []string          `json:"dropped,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <template-file>",
		Short: "Print the query a from_table block would issue",
		Long: `Read a from_table block body, collect its field references and print
the SELECT statement issued for them under the default where_id
condition. No database is opened.

Field references that do not resolve in the table schema map are dropped
and listed after the statement.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "site.cue", "site configuration (.cue file or directory)")
	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "root table (default: first table of the site)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite3", "SQL dialect (sqlite3|mysql|postgres)")
	cmd.Flags().Int64Var(&opts.Page, "page", 0, "primary key value of where_id (default: the _page option, else 1)")

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dialect, err := querysql.DialectFor(opts.Dialect)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidDialect, err.Error(), nil)
	}

	site, err := LoadSite(opts.Config, nil)
	if err != nil {
		return loadFailure(formatter, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading template: %v", err), nil)
	}

	id := int64(1)
	if cmd.Flags().Changed("page") {
		id = opts.Page
	} else if v, ok := site.Get("_page"); ok {
		id = ir.ParseInt(v)
	}

	schema := site.Schema()
	table := schema.Root(opts.Table)
	fields := interp.Parse(string(content)).Fields()
	formatter.VerboseLog("Template %s reads %d field(s) from %s", path, len(fields), table)

	cond := querysql.ByID{PrimaryKey: site.PrimaryKey, Value: id}
	q, ok := querysql.Select(schema, table, fields, site.PrimaryKey, cond, dialect)
	if !ok {
		return formatter.fail(ExitFailure, ErrCodeNothingPlanned,
			fmt.Sprintf("no field of %s resolves in table %q", path, table), q.Dropped)
	}

	result := PlanResult{Table: table, SQL: q.SQL, Aliases: q.Aliases, Dropped: q.Dropped}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputPlanText(formatter, result)
}

// outputPlanText prints the statement, then the aliases and dropped
// fields as SQL comments.
func outputPlanText(formatter *OutputFormatter, r PlanResult) error {
	fmt.Fprintln(formatter.Writer, r.SQL)

	if formatter.Verbose {
		refs := make([]string, 0, len(r.Aliases))
		for ref := range r.Aliases {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		for _, ref := range refs {
			fmt.Fprintf(formatter.Writer, "-- %s AS %s\n", ref, r.Aliases[ref])
		}
	}
	for _, f := range r.Dropped {
		fmt.Fprintf(formatter.Writer, "-- dropped: %s\n", f)
	}
	return nil
}
