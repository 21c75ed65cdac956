package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bridgee/internal/bootstrap"
)

var blogCmd = &cobra.Command{
	Use:   "blog",
	Short: "Inspect website blog posts",
}

var blogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blog posts",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		posts := app.Blog.List(cmd.Context())
		if len(posts) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "There are no blog posts yet.")
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPUBLISHED\tTITLE\tAUTHOR")
		for _, p := range posts {
			author := ""
			if p.Author != nil {
				author = *p.Author
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.DatePublished.UTC().Format(cliTimeLayout), p.Title, author)
		}
		return tw.Flush()
	}),
}

func init() {
	rootCmd.AddCommand(blogCmd)
	blogCmd.AddCommand(blogListCmd)
}
