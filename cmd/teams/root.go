package main

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/log"
)

var (
	// flags
	env        string
	configFile string
	actingUser int

	// set by the persistent pre run
	logger log.Logger
	config Configuration
)

func init() {
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file")
	RootCmd.PersistentFlags().IntVar(&actingUser, "as", 0, "id of the user running the command")
}

var RootCmd = cobra.Command{
	Use:           "teams",
	Short:         "Manage teams and their memberships",
	Long:          "Manage teams, their members, applications and invitations",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = log.New(env)

		if configFile == "" {
			configFile = path.Join("configuration", fmt.Sprintf("config.%s.toml", env))
		}

		var err error
		config, err = loadConfiguration(configFile)
		if err != nil {
			logger.Fatal(err)
		}
	},
}

func inheritPersistentPreRun(cmd *cobra.Command) {
	ppr := cmd.PersistentPreRun
	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		// Run parent persistent pre run
		if cmd.Parent() != nil && cmd.Parent().PersistentPreRun != nil {
			cmd.Parent().PersistentPreRun(c, args)
		}

		// Run command persistent pre run
		if ppr != nil {
			ppr(c, args)
		}
	}
}

// requireActingUser returns the id given with --as.
func requireActingUser() (int, error) {
	if actingUser <= 0 {
		return 0, errors.New("this command needs the acting user: use --as <user id>", errors.BadRequest())
	}
	return actingUser, nil
}

func parseID(arg, name string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.New(fmt.Sprintf("invalid %s id %q", name, arg), errors.BadRequest())
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

// printResult prints whether a transition was applied.
func printResult(cmd *cobra.Command, name string, id int, ok bool) {
	if ok {
		cmd.Printf("%s: membership %d updated\n", name, id)
	} else {
		cmd.Printf("%s: nothing to do for membership %d\n", name, id)
	}
}
