package cli

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	builtindocs "github.com/Materials-Consortia/optimade-go/docs"
	"github.com/Materials-Consortia/optimade-go/internal/ui"
)

// docsTopic is one bundled documentation page.
type docsTopic struct {
	Section string `json:"section"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

var docsCmd = &cobra.Command{
	Use:   "docs [section] [topic]",
	Short: "Browse bundled documentation",
	Long: `Browse the documentation bundled into the optiq binary.

With no arguments, lists the available topics. With a section and
topic, renders the page (as markdown when stdout is a terminal).

Examples:
  optiq docs
  optiq docs guide filters
  optiq docs reference errors`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := listDocsTopics()
		if err != nil {
			return handleError(ErrInternal, err, "Rebuild optiq so bundled docs are available")
		}

		if len(args) < 2 {
			matching := topics
			if len(args) == 1 {
				matching = nil
				for _, t := range topics {
					if t.Section == args[0] {
						matching = append(matching, t)
					}
				}
				if len(matching) == 0 {
					return handleError(ErrInvalidInput,
						fmt.Errorf("unknown docs section %q", args[0]),
						"Run 'optiq docs' to list sections")
				}
			}
			if isJSONOutput() {
				outputSuccess(map[string]any{"topics": matching})
				return nil
			}
			fmt.Println(ui.Header("Bundled documentation"))
			for _, t := range matching {
				fmt.Printf("  %s %s\n", ui.Accent.Render(t.Section), t.Name)
			}
			fmt.Println(ui.Hint("Read a page with: optiq docs <section> <topic>"))
			return nil
		}

		topicPath := path.Join(args[0], args[1]+".md")
		content, err := fs.ReadFile(builtindocs.FS, topicPath)
		if err != nil {
			return handleError(ErrInvalidInput,
				fmt.Errorf("unknown docs topic %q", args[0]+" "+args[1]),
				"Run 'optiq docs' to list topics")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"path": topicPath, "content": string(content)})
			return nil
		}
		if !ui.IsInteractive() {
			fmt.Print(string(content))
			return nil
		}
		rendered, err := ui.RenderMarkdown(string(content), ui.TermWidth())
		if err != nil {
			fmt.Print(string(content))
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func listDocsTopics() ([]docsTopic, error) {
	var topics []docsTopic
	err := fs.WalkDir(builtindocs.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		topics = append(topics, docsTopic{
			Section: path.Dir(p),
			Name:    strings.TrimSuffix(path.Base(p), ".md"),
			Path:    p,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Section != topics[j].Section {
			return topics[i].Section < topics[j].Section
		}
		return topics[i].Name < topics[j].Name
	})
	return topics, nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
