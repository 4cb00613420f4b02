package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/ui"
)

// treeView is the JSON shape of a parse tree node.
type treeView struct {
	Production string     `json:"production,omitempty"`
	Token      string     `json:"token,omitempty"`
	Value      string     `json:"value,omitempty"`
	Children   []treeView `json:"children,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [filter]",
	Short: "Parse a filter and print its parse tree",
	Long: `Parse an OPTIMADE filter string and print the resulting parse tree
without compiling it. Useful for debugging filters and backend
transformers.

Examples:
  optiq parse 'nelements = 3 AND elements HAS "Si"'
  optiq parse --grammar-version 0.9.7 'elements HAS "Si"'`,
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

		if isJSONOutput() {
			outputSuccess(viewOf(tree))
			return nil
		}

		fmt.Println(ui.Hint(fmt.Sprintf("grammar %s", p.Grammar().Version)))
		fmt.Print(tree.Dump())
		return nil
	},
}

func viewOf(tree *parser.Tree) treeView {
	v := treeView{Production: string(tree.Production)}
	for _, child := range tree.Children {
		switch c := child.(type) {
		case *parser.Tree:
			v.Children = append(v.Children, viewOf(c))
		case parser.Token:
			v.Children = append(v.Children, treeView{
				Token: c.Type.String(),
				Value: c.Value,
			})
		}
	}
	return v
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
