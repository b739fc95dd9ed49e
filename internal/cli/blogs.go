package cli

import (
	"github.com/spf13/cobra"
)

func newBlogsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogs",
		Short: "List the blogs available to the API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := app.newController(cmd)
			// The controller already reported the failure on stderr.
			if err := ctrl.RefreshBlogs(cmd.Context()); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"data": ctrl.Snapshot().Blogs,
			})
		},
	}
	return cmd
}
