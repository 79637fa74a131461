package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"portfolio/internal/content"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect the site content",
	}
	cmd.AddCommand(newContentCheckCmd())
	return cmd
}

func newContentCheckCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the content and report what it contains",
		Long:  "Loads site.yaml and every project the way the server does. Without --dir or CONTENT_DIR the embedded content is checked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("dir") {
				dir = os.Getenv("CONTENT_DIR")
			}
			lib, err := content.OpenDir(dir, commandLogger(cmd))
			if err != nil {
				return fmt.Errorf("content check: %w", err)
			}
			site := lib.Site()

			source := dir
			if source == "" {
				source = "embedded"
			}
			counts := []struct {
				name string
				key  string
				n    int
			}{
				{"experience", "experience", len(site.Experience)},
				{"education", "education", len(site.Education)},
				{"skill groups", "skill_groups", len(site.Skills)},
				{"projects", "projects", len(site.Projects)},
				{"featured", "featured", len(site.Featured())},
				{"tags", "tags", len(site.Tags())},
			}

			if getOutputFormat(cmd) == "json" {
				out := map[string]any{
					"source": source,
					"name":   site.Profile.Name,
				}
				for _, c := range counts {
					out[c.key] = c.n
				}
				return printJSON(os.Stdout, out)
			}

			_, _ = fmt.Fprintf(os.Stdout, "content OK: %s (%s)\n\n", site.Profile.Name, source)
			rows := make([][]string, 0, len(counts))
			for _, c := range counts {
				rows = append(rows, []string{c.name, strconv.Itoa(c.n)})
			}
			printTable(os.Stdout, []string{"section", "count"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Content directory (default $CONTENT_DIR, else embedded)")
	return cmd
}
