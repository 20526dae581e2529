package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
)

var (
	teamDescription string
	teamScope       string
	teamPrivate     bool
	teamName        string
	publicOnly      bool
	membersOf       string
)

func init() {
	TeamCreateCommand.Flags().StringVar(&teamDescription, "description", "", "description of the team")
	TeamCreateCommand.Flags().StringVar(&teamScope, "scope", "application", "how users get in: open, application or invitation")
	TeamCreateCommand.Flags().BoolVar(&teamPrivate, "private", false, "hide the team from public listings")

	TeamUpdateCommand.Flags().StringVar(&teamName, "name", "", "new name of the team")
	TeamUpdateCommand.Flags().StringVar(&teamDescription, "description", "", "new description of the team")
	TeamUpdateCommand.Flags().StringVar(&teamScope, "scope", "", "new scope: open, application or invitation")
	TeamUpdateCommand.Flags().BoolVar(&teamPrivate, "private", false, "hide the team from public listings")

	TeamListCommand.Flags().BoolVar(&publicOnly, "public", false, "only list public teams")
	TeamMembersCommand.Flags().StringVar(&membersOf, "status", "acceptances", "one of applicants, invitees, declines, rejections, acceptances, members, managers, owners")

	TeamCommand.AddCommand(&TeamCreateCommand)
	TeamCommand.AddCommand(&TeamListCommand)
	TeamCommand.AddCommand(&TeamShowCommand)
	TeamCommand.AddCommand(&TeamMembersCommand)
	TeamCommand.AddCommand(&TeamUpdateCommand)
	TeamCommand.AddCommand(&TeamDeleteCommand)

	inheritPersistentPreRun(&TeamCommand)
	RootCmd.AddCommand(&TeamCommand)
}

var TeamCommand = cobra.Command{
	Use:   "team",
	Short: "Create, list and edit teams",
	Long:  "Create, list and edit teams",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var TeamCreateCommand = cobra.Command{
	Use:   "create <name>",
	Short: "Create a team owned by the acting user",
	Long:  "Create a team owned by the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		by, err := requireActingUser()
		if err != nil {
			return err
		}

		scope, err := teams.ParseScope(teamScope)
		if err != nil {
			return errors.New(err.Error(), errors.BadRequest())
		}

		team, err := a.teams.Create(cmd.Context(), by, teams.Team{
			Name:          args[0],
			Description:   teamDescription,
			Scope:         scope,
			PublicVisible: !teamPrivate,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, team)
	}),
}

var TeamListCommand = cobra.Command{
	Use:   "list",
	Short: "List the teams",
	Long:  "List the teams",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		list, err := a.teams.List(cmd.Context(), publicOnly)
		if err != nil {
			return err
		}

		for _, team := range list {
			if err := printJSON(cmd, team); err != nil {
				return err
			}
		}
		return nil
	}),
}

var TeamShowCommand = cobra.Command{
	Use:   "show <team>",
	Short: "Show a team and the role of the acting user in it",
	Long:  "Show a team and the role of the acting user in it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		team, err := a.teams.Get(cmd.Context(), teamID)
		if err != nil {
			return err
		}
		if err := printJSON(cmd, team); err != nil {
			return err
		}

		if actingUser <= 0 {
			return nil
		}

		role, ok, err := a.teams.RoleFor(cmd.Context(), teamID, actingUser)
		if err != nil {
			return err
		} else if !ok {
			cmd.Printf("user %d has no role in team %d\n", actingUser, teamID)
			return nil
		}

		status, _, err := a.teams.StatusFor(cmd.Context(), teamID, actingUser)
		if err != nil {
			return err
		}
		cmd.Printf("user %d is %s (%s) in team %d\n", actingUser, role, status, teamID)

		canApply, err := a.teams.CanApply(cmd.Context(), teamID, actingUser)
		if err != nil {
			return err
		}
		canJoin, err := a.teams.CanJoin(cmd.Context(), teamID, actingUser)
		if err != nil {
			return err
		}
		canLeave, err := a.teams.CanLeave(cmd.Context(), teamID, actingUser)
		if err != nil {
			return err
		}
		cmd.Printf("can apply: %t, can join: %t, can leave: %t\n", canApply, canJoin, canLeave)
		return nil
	}),
}

var TeamMembersCommand = cobra.Command{
	Use:   "members <team>",
	Short: "List the memberships of a team",
	Long:  "List the memberships of a team, filtered by --status",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		queries := map[string]func() ([]teams.Membership, error){
			"applicants":  func() ([]teams.Membership, error) { return a.teams.Applicants(cmd.Context(), teamID) },
			"invitees":    func() ([]teams.Membership, error) { return a.teams.Invitees(cmd.Context(), teamID) },
			"declines":    func() ([]teams.Membership, error) { return a.teams.Declines(cmd.Context(), teamID) },
			"rejections":  func() ([]teams.Membership, error) { return a.teams.Rejections(cmd.Context(), teamID) },
			"acceptances": func() ([]teams.Membership, error) { return a.teams.Acceptances(cmd.Context(), teamID) },
			"members":     func() ([]teams.Membership, error) { return a.teams.Members(cmd.Context(), teamID) },
			"managers":    func() ([]teams.Membership, error) { return a.teams.Managers(cmd.Context(), teamID) },
			"owners":      func() ([]teams.Membership, error) { return a.teams.Owners(cmd.Context(), teamID) },
		}

		query, ok := queries[membersOf]
		if !ok {
			return errors.New(fmt.Sprintf("unknown status %q", membersOf), errors.BadRequest())
		}

		if _, err := a.teams.Get(cmd.Context(), teamID); err != nil {
			return err
		}

		memberships, err := query()
		if err != nil {
			return err
		}
		for _, m := range memberships {
			if err := printJSON(cmd, m); err != nil {
				return err
			}
		}
		return nil
	}),
}

var TeamUpdateCommand = cobra.Command{
	Use:   "update <team>",
	Short: "Update a team",
	Long:  "Update the name, description, scope or visibility of a team. Only owners and managers can.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		by, err := requireActingUser()
		if err != nil {
			return err
		}

		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		team, err := a.teams.Get(cmd.Context(), teamID)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("name") {
			team.Name = teamName
		}
		if flags.Changed("description") {
			team.Description = teamDescription
		}
		if flags.Changed("scope") {
			team.Scope, err = teams.ParseScope(teamScope)
			if err != nil {
				return errors.New(err.Error(), errors.BadRequest())
			}
		}
		if flags.Changed("private") {
			team.PublicVisible = !teamPrivate
		}

		team, err = a.teams.Update(cmd.Context(), by, team)
		if err != nil {
			return err
		}
		return printJSON(cmd, team)
	}),
}

var TeamDeleteCommand = cobra.Command{
	Use:   "delete <team>",
	Short: "Delete a team with its memberships",
	Long:  "Delete a team with its memberships and invitations. Only owners can.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		by, err := requireActingUser()
		if err != nil {
			return err
		}

		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		if err := a.teams.Delete(cmd.Context(), by, teamID); err != nil {
			return err
		}
		cmd.Printf("team %d deleted\n", teamID)
		return nil
	}),
}
