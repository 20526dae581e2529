package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/bolt"
	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/inmem"
	"github.com/bobinette/teams/mysql"
	"github.com/bobinette/teams/notify"
	"github.com/bobinette/teams/services"
)

type app struct {
	teams       *services.TeamService
	memberships *services.MembershipService
}

// openRepositories opens the backend selected by the configuration. The
// returned function releases it.
func openRepositories(cfg Configuration) (services.Repositories, func(), error) {
	switch cfg.Store.Driver {
	case "bolt":
		driver := &bolt.Driver{}
		if err := driver.Open(cfg.Bolt.Store); err != nil {
			return services.Repositories{}, func() {}, err
		}

		repos := services.Repositories{
			Teams:       &bolt.TeamRepository{Driver: driver},
			Memberships: &bolt.MembershipRepository{Driver: driver},
			Invitations: &bolt.InvitationRepository{Driver: driver},
			Transactor:  driver,
		}
		return repos, func() { driver.Close() }, nil
	case "mysql":
		driver, err := mysql.NewDriver(cfg.MySQL, logger)
		if err != nil {
			return services.Repositories{}, func() {}, err
		}

		repos := services.Repositories{
			Teams:       mysql.NewTeamRepository(driver),
			Memberships: mysql.NewMembershipRepository(driver),
			Invitations: mysql.NewInvitationRepository(driver),
			Transactor:  driver,
		}
		return repos, func() { driver.Close() }, nil
	case "memory":
		store := inmem.NewStore()
		repos := services.Repositories{
			Teams:       inmem.NewTeamRepository(store),
			Memberships: inmem.NewMembershipRepository(store),
			Invitations: inmem.NewInvitationRepository(store),
			Transactor:  store,
		}
		return repos, func() {}, nil
	}

	return services.Repositories{}, func() {}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func openApp(cfg Configuration) (*app, func(), error) {
	repos, closeRepos, err := openRepositories(cfg)
	if err != nil {
		return nil, closeRepos, err
	}

	var notifier teams.Notifier = notify.NewLogger(logger)
	closeAll := closeRepos
	if cfg.Notify.Async {
		async := notify.NewAsync(notifier, logger)
		notifier = async
		closeAll = func() {
			async.Wait()
			closeRepos()
		}
	}

	blacklist := teams.NewNameBlacklist(cfg.Teams.Blacklist...)
	return &app{
		teams:       services.NewTeamService(repos, blacklist, notifier, logger),
		memberships: services.NewMembershipService(repos, notifier, logger, cfg.Teams.InviteGrace.Duration),
	}, closeAll, nil
}

// withApp opens the store for the duration of run.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp(config)
		defer closeApp()
		if err != nil {
			return errors.New("error opening store", errors.WithCause(err))
		}

		return run(cmd, args, a)
	}
}
