package main

import (
	"github.com/spf13/cobra"

	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/mysql"
)

var migrateDown bool

func init() {
	MigrateCommand.Flags().BoolVar(&migrateDown, "down", false, "revert all the migrations")

	inheritPersistentPreRun(&MigrateCommand)
	RootCmd.AddCommand(&MigrateCommand)
}

var MigrateCommand = cobra.Command{
	Use:   "migrate",
	Short: "Migrate the mysql schema",
	Long:  "Apply the schema migrations to the mysql database, or revert them with --down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Store.Driver != "mysql" {
			return errors.New("migrations only apply to the mysql store", errors.BadRequest())
		}

		driver, err := mysql.NewDriver(config.MySQL, logger)
		if err != nil {
			return errors.New("error opening store", errors.WithCause(err))
		}
		defer driver.Close()

		version, err := driver.Migrate(!migrateDown)
		if err != nil {
			return errors.New("error migrating", errors.WithCause(err))
		}

		logger.Infof("schema at version %d", version)
		return nil
	},
}
