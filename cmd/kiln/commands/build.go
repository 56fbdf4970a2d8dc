package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Regenerate every outdated artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			trace, _ := cmd.Flags().GetBool("trace")

			return c.app.Build(cmd.Context(), app.BuildOptions{
				ConfigPath: configPath(cmd),
				Strict:     strict,
				Trace:      trace,
			})
		},
	}
	cmd.Flags().Bool("strict", false, "Exit with an error if any unit fails or is skipped")
	cmd.Flags().BoolP("trace", "t", false, "Print per-unit progress as units are evaluated")
	return cmd
}

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show which artifacts a build would regenerate, and why",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.app.Plan(cmd.Context(), app.PlanOptions{ConfigPath: configPath(cmd)})
			return err
		},
	}
}

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last build of every artifact and whether it was modified since",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.app.Status(cmd.Context(), app.StatusOptions{ConfigPath: configPath(cmd)})
			return err
		},
	}
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever a source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			trace, _ := cmd.Flags().GetBool("trace")
			return c.app.Watch(cmd.Context(), app.WatchOptions{
				ConfigPath: configPath(cmd),
				Trace:      trace,
			})
		},
	}
	cmd.Flags().BoolP("trace", "t", false, "Print per-unit progress as units are evaluated")
	return cmd
}
