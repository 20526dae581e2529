package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/robfig/cron.v2"

	"github.com/bobinette/teams/errors"
)

var sweepOnce bool

func init() {
	SweepCommand.Flags().BoolVar(&sweepOnce, "once", false, "purge once and exit instead of running on the schedule")

	inheritPersistentPreRun(&SweepCommand)
	RootCmd.AddCommand(&SweepCommand)
}

var SweepCommand = cobra.Command{
	Use:   "sweep",
	Short: "Purge the expired invitations",
	Long:  "Remove the invitations nobody claimed before they expired, along with their memberships",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if sweepOnce {
			return sweep(ctx, a)
		}

		c := cron.New()
		_, err := c.AddFunc(config.Sweep.Schedule, func() {
			if err := sweep(ctx, a); err != nil {
				logger.Errorf("could not purge invitations: %v", err)
			}
		})
		if err != nil {
			return errors.New("invalid sweep schedule", errors.WithCause(err))
		}
		c.Start()
		defer c.Stop()

		logger.Infof("sweeping on schedule %q", config.Sweep.Schedule)
		<-ctx.Done()
		return nil
	}),
}

func sweep(ctx context.Context, a *app) error {
	n, err := a.memberships.PurgeExpired(ctx, time.Now())
	if err != nil {
		return err
	}

	logger.Infof("purged %d expired invitations", n)
	return nil
}
