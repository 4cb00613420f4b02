package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Materials-Consortia/optimade-go/internal/elastic"
	"github.com/Materials-Consortia/optimade-go/internal/mongo"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/schema"
	"github.com/Materials-Consortia/optimade-go/internal/sqlite"
)

var (
	compileBackend   string
	compileEntryType string
)

// sqlResult is the compile output for the sql backend.
type sqlResult struct {
	Where string `json:"where"`
	Args  []any  `json:"args"`
}

var compileCmd = &cobra.Command{
	Use:   "compile [filter]",
	Short: "Compile a filter into a backend query",
	Long: `Compile an OPTIMADE filter string into a backend query.

The filter is read from the argument or from stdin. Backends:
  mongo    document-store query object
  elastic  search-engine query DSL
  sql      parameterized WHERE clause over a JSON catalog

Examples:
  optiq compile 'elements HAS ALL "Si", "O" AND nelements = 2'
  optiq compile --backend elastic 'chemical_formula_descriptive CONTAINS "H2O"'
  optiq compile --backend sql --type references 'year >= 2000'
  echo 'nelements > 3' | optiq compile`,
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
			return handleError(ErrSchemaInvalid, err, "Check the schema file against 'optiq docs reference schema'")
		}
		entry := s.EntryType(resolveEntryType(compileEntryType))

		backend := compileBackend
		if backend == "" {
			backend = cfg.Backend
		}
		if backend == "" {
			backend = "mongo"
		}

		result, err := compileForBackend(backend, entry, tree)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}

		if isJSONOutput() {
			outputSuccess(result)
			return nil
		}
		encoded, err := marshalIndented(result)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		fmt.Println(string(encoded))
		return nil
	},
}

func compileForBackend(backend string, entry *schema.EntryType, tree *parser.Tree) (any, error) {
	switch backend {
	case "mongo":
		table, err := entry.AliasTable()
		if err != nil {
			return nil, handleError(ErrSchemaInvalid, err, "")
		}
		tr := mongo.NewTransformer(
			mongo.WithAliases(table),
			mongo.WithRelationshipTargets(entry.Relationships...),
		)
		q, err := tr.Compile(tree)
		if err != nil {
			return nil, handleFilterError(err)
		}
		return q, nil
	case "elastic":
		tr := elastic.NewTransformer(entry.ElasticQuantities())
		q, err := tr.Compile(tree)
		if err != nil {
			return nil, handleFilterError(err)
		}
		return q, nil
	case "sql":
		table, err := entry.AliasTable()
		if err != nil {
			return nil, handleError(ErrSchemaInvalid, err, "")
		}
		tr := sqlite.NewTransformer(sqlite.WithAliases(table))
		clause, err := tr.Compile(tree)
		if err != nil {
			return nil, handleFilterError(err)
		}
		return sqlResult{Where: clause.SQL, Args: clause.Args}, nil
	default:
		return nil, handleError(ErrInvalidInput,
			fmt.Errorf("unknown backend %q", backend),
			"Backends: mongo, elastic, sql")
	}
}

func init() {
	compileCmd.Flags().StringVarP(&compileBackend, "backend", "b", "", "Compile target: mongo, elastic, sql")
	compileCmd.Flags().StringVarP(&compileEntryType, "type", "t", "", "Entry type the filter applies to")
	rootCmd.AddCommand(compileCmd)
}
