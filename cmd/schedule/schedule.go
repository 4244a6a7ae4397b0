// Package schedule implements the schedule command, which runs the
// full pipeline on a recurring cron schedule.
package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// Command returns the schedule command for use in the root command.
func Command() *cobra.Command {
	var (
		all  bool
		spec string
	)

	cmd := &cobra.Command{
		Use:   "schedule [domains...]",
		Short: "Run the full pipeline on a cron schedule",
		Long: `Run the harvest, merge, and load pipeline for the given domains on
a recurring schedule. The spec uses the standard 5-field cron format,
e.g. "0 6 * * *" for every day at 06:00.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			domains, resolveErr := deps.Config.ResolveDomains(args, all)
			if resolveErr != nil {
				return resolveErr
			}

			repo, db, repoErr := deps.OpenRepository()
			if repoErr != nil {
				return repoErr
			}
			defer db.Close()

			p := deps.NewPipeline(repo)
			ctx := cmd.Context()

			scheduler := cron.New()
			_, cronErr := scheduler.AddFunc(spec, func() {
				if _, runErr := p.Run(ctx, domains); runErr != nil {
					deps.Logger.Error("scheduled run failed", "error", runErr.Error())
				}
			})
			if cronErr != nil {
				return fmt.Errorf("invalid cron spec %q: %w", spec, cronErr)
			}

			deps.Logger.Info("scheduler started", "spec", spec, "domains", domains)
			scheduler.Start()

			<-ctx.Done()
			deps.Logger.Info("shutdown signal received")
			<-scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "schedule every supported domain")
	cmd.Flags().StringVar(&spec, "spec", "0 6 * * *", "cron schedule spec")

	return cmd
}
