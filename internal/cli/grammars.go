package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Materials-Consortia/optimade-go/internal/grammar"
	"github.com/Materials-Consortia/optimade-go/internal/ui"
)

// grammarView is the JSON shape of one registered grammar.
type grammarView struct {
	Version         string `json:"version"`
	Variant         string `json:"variant"`
	ZippedTuples    bool   `json:"zipped_tuples"`
	LengthOperators bool   `json:"length_operators"`
}

var grammarsCmd = &cobra.Command{
	Use:   "grammars",
	Short: "List registered filter grammar versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := grammar.DefaultRegistry()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		grammars := reg.Versions()
		if isJSONOutput() {
			views := make([]grammarView, 0, len(grammars))
			for _, g := range grammars {
				views = append(views, grammarView{
					Version:         g.Version.String(),
					Variant:         g.Variant,
					ZippedTuples:    g.Features.ZippedTuples,
					LengthOperators: g.Features.LengthOperators,
				})
			}
			outputSuccess(map[string]any{"grammars": views})
			return nil
		}

		fmt.Println(ui.Header("Registered grammars"))
		for i, g := range grammars {
			label := g.Version.String()
			if g.Variant != grammar.DefaultVariant {
				label += " (" + g.Variant + ")"
			}
			if i == 0 {
				label += "  " + ui.Hint("(latest)")
			}
			fmt.Printf("  %s\n", ui.Accent.Render(label))
		}
		return nil
	},
}

var grammarsShowCmd = &cobra.Command{
	Use:   "show <version>",
	Short: "Print the EBNF text of a grammar version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := grammar.DefaultRegistry()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		v, err := grammar.ParseVersion(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "Versions look like 0.10.1")
		}
		g, err := reg.Resolve(&v, grammar.DefaultVariant)
		if err != nil {
			return handleFilterError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{
				"version": g.Version.String(),
				"text":    g.Text,
			})
			return nil
		}
		fmt.Print(g.Text)
		return nil
	},
}

func init() {
	grammarsCmd.AddCommand(grammarsShowCmd)
	rootCmd.AddCommand(grammarsCmd)
}
