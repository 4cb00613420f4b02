package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Materials-Consortia/optimade-go/internal/sqlite"
	"github.com/Materials-Consortia/optimade-go/internal/ui"
)

var (
	queryDBPath    string
	queryEntryType string
)

var queryCmd = &cobra.Command{
	Use:   "query [filter]",
	Short: "Run a filter against a SQLite catalog",
	Long: `Compile a filter to SQL and execute it against a SQLite entry
catalog, printing the matching entry ids.

Examples:
  optiq query --db catalog.db 'elements HAS "Si" AND nelements < 4'
  optiq query --db catalog.db --type references 'year >= 2000'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := readFilterArg(args)
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}

		p, err := newFilterParser()
		if err != nil {
			return handleFilterError(err)
		}
		tree, err := p.Parse(filter)
		if err != nil {
			return handleFilterError(err)
		}

		s, err := loadMappingSchema()
		if err != nil {
			return handleError(ErrSchemaInvalid, err, "")
		}
		entryType := resolveEntryType(queryEntryType)
		table, err := s.EntryType(entryType).AliasTable()
		if err != nil {
			return handleError(ErrSchemaInvalid, err, "")
		}

		clause, err := sqlite.NewTransformer(sqlite.WithAliases(table)).Compile(tree)
		if err != nil {
			return handleFilterError(err)
		}

		store, err := sqlite.Open(queryDBPath)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Pass the catalog path with --db")
		}
		defer store.Close()

		ids, err := store.Select(cmd.Context(), entryType, clause)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{"ids": ids, "count": len(ids)})
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Println(ui.Hint(fmt.Sprintf("%d matching %s", len(ids), entryType)))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryDBPath, "db", "", "Path to the SQLite catalog")
	queryCmd.Flags().StringVarP(&queryEntryType, "type", "t", "", "Entry type the filter applies to")
	_ = queryCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(queryCmd)
}
