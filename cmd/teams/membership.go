package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
)

var membershipRole string

func init() {
	MembershipAddCommand.Flags().StringVar(&membershipRole, "role", "member", "role of the new membership: owner, manager or member")

	MembershipCommand.AddCommand(&MembershipShowCommand)
	MembershipCommand.AddCommand(&MembershipAddCommand)
	MembershipCommand.AddCommand(&MembershipApplyCommand)
	MembershipCommand.AddCommand(&MembershipJoinCommand)
	MembershipCommand.AddCommand(&MembershipLeaveCommand)
	MembershipCommand.AddCommand(&MembershipRemoveCommand)
	MembershipCommand.AddCommand(&MembershipKickCommand)

	transitions := []struct {
		use   string
		short string
		do    func(a *app) func(ctx context.Context, id, by int) (bool, error)
	}{
		{"promote", "Promote a member to manager", func(a *app) func(context.Context, int, int) (bool, error) { return a.memberships.Promote }},
		{"demote", "Demote a manager to member", func(a *app) func(context.Context, int, int) (bool, error) { return a.memberships.Demote }},
		{"accept", "Accept an application", func(a *app) func(context.Context, int, int) (bool, error) { return a.memberships.Accept }},
		{"reject", "Reject an application", func(a *app) func(context.Context, int, int) (bool, error) { return a.memberships.Reject }},
		{"decline", "Decline an invitation to a team", func(a *app) func(context.Context, int, int) (bool, error) { return a.memberships.Decline }},
	}
	for _, t := range transitions {
		MembershipCommand.AddCommand(transitionCommand(t.use, t.short, t.do))
	}

	inheritPersistentPreRun(&MembershipCommand)
	RootCmd.AddCommand(&MembershipCommand)
}

var MembershipCommand = cobra.Command{
	Use:   "membership",
	Short: "Manage the memberships of teams",
	Long:  "Apply to, join and leave teams, and manage their members",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// transitionCommand builds a command applying a status or role change to
// the membership given as argument, on behalf of the acting user.
func transitionCommand(use, short string, do func(a *app) func(ctx context.Context, id, by int) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <membership>",
		Short: short,
		Long:  short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			by, err := requireActingUser()
			if err != nil {
				return err
			}

			id, err := parseID(args[0], "membership")
			if err != nil {
				return err
			}

			ok, err := do(a)(cmd.Context(), id, by)
			if err != nil {
				return err
			}
			printResult(cmd, use, id, ok)
			return nil
		}),
	}
}

var MembershipShowCommand = cobra.Command{
	Use:   "show <membership>",
	Short: "Show a membership",
	Long:  "Show a membership",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, err := parseID(args[0], "membership")
		if err != nil {
			return err
		}

		m, err := a.memberships.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd, m)
	}),
}

var MembershipAddCommand = cobra.Command{
	Use:   "add <team> <user>",
	Short: "Add a user to a team",
	Long:  "Add a user to a team with the given role, or return their membership if they already have one",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		userID, err := parseID(args[1], "user")
		if err != nil {
			return err
		}

		role, err := teams.ParseRole(membershipRole)
		if err != nil {
			return errors.New(err.Error(), errors.BadRequest())
		}

		m, err := a.teams.AddUser(cmd.Context(), teamID, userID, role)
		if err != nil {
			return err
		}
		return printJSON(cmd, m)
	}),
}

var MembershipApplyCommand = cobra.Command{
	Use:   "apply <team>",
	Short: "Apply to a team as the acting user",
	Long:  "Apply to a team as the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		return onTeam(cmd, args, a.teams.Apply)
	}),
}

var MembershipJoinCommand = cobra.Command{
	Use:   "join <team>",
	Short: "Join a team as the acting user",
	Long:  "Join an open team, or a team the acting user was invited to",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		return onTeam(cmd, args, a.teams.Join)
	}),
}

func onTeam(cmd *cobra.Command, args []string, do func(ctx context.Context, teamID, userID int) (teams.Membership, error)) error {
	userID, err := requireActingUser()
	if err != nil {
		return err
	}

	teamID, err := parseID(args[0], "team")
	if err != nil {
		return err
	}

	m, err := do(cmd.Context(), teamID, userID)
	if err != nil {
		return err
	}
	return printJSON(cmd, m)
}

var MembershipLeaveCommand = cobra.Command{
	Use:   "leave <team>",
	Short: "Leave a team as the acting user",
	Long:  "Leave a team as the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		userID, err := requireActingUser()
		if err != nil {
			return err
		}

		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		if err := a.teams.Leave(cmd.Context(), teamID, userID); err != nil {
			return err
		}
		cmd.Printf("user %d left team %d\n", userID, teamID)
		return nil
	}),
}

var MembershipRemoveCommand = cobra.Command{
	Use:   "remove <membership>",
	Short: "Remove a membership",
	Long:  "Remove a membership and its invitation, whoever asks",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, err := parseID(args[0], "membership")
		if err != nil {
			return err
		}

		if err := a.memberships.Remove(cmd.Context(), id); err != nil {
			return err
		}
		cmd.Printf("membership %d removed\n", id)
		return nil
	}),
}

var MembershipKickCommand = cobra.Command{
	Use:   "kick <membership>",
	Short: "Remove a membership on behalf of an owner or manager",
	Long:  "Remove a membership on behalf of an owner or manager",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		by, err := requireActingUser()
		if err != nil {
			return err
		}

		id, err := parseID(args[0], "membership")
		if err != nil {
			return err
		}

		ok, err := a.memberships.Kick(cmd.Context(), id, by)
		if err != nil {
			return err
		}
		printResult(cmd, "kick", id, ok)
		return nil
	}),
}
