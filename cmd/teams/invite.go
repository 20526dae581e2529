package main

import (
	"github.com/spf13/cobra"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
)

var inviteRole string

func init() {
	InviteSendCommand.Flags().StringVar(&inviteRole, "role", "member", "role given to the invited user: owner, manager or member")

	InviteCommand.AddCommand(&InviteSendCommand)
	InviteCommand.AddCommand(&InviteAcceptCommand)
	InviteCommand.AddCommand(&InviteResendCommand)

	inheritPersistentPreRun(&InviteCommand)
	RootCmd.AddCommand(&InviteCommand)
}

var InviteCommand = cobra.Command{
	Use:   "invite",
	Short: "Invite people to teams by email",
	Long:  "Invite people to teams by email",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var InviteSendCommand = cobra.Command{
	Use:   "send <team> <email>",
	Short: "Invite an email to a team",
	Long:  "Invite an email to a team. The token printed is what the invited user accepts.",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		by, err := requireActingUser()
		if err != nil {
			return err
		}

		teamID, err := parseID(args[0], "team")
		if err != nil {
			return err
		}

		role, err := teams.ParseRole(inviteRole)
		if err != nil {
			return errors.New(err.Error(), errors.BadRequest())
		}

		m, inv, err := a.memberships.Invite(cmd.Context(), by, teamID, args[1], role)
		if err != nil {
			return err
		}

		if err := printJSON(cmd, m); err != nil {
			return err
		}
		return printJSON(cmd, inv)
	}),
}

var InviteAcceptCommand = cobra.Command{
	Use:   "accept <token>",
	Short: "Accept an invitation as the acting user",
	Long:  "Accept an invitation as the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		userID, err := requireActingUser()
		if err != nil {
			return err
		}

		m, err := a.memberships.AcceptInvitation(cmd.Context(), args[0], userID)
		if err != nil {
			return err
		}
		return printJSON(cmd, m)
	}),
}

var InviteResendCommand = cobra.Command{
	Use:   "resend <membership>",
	Short: "Push back the expiry of an invitation",
	Long:  "Push back the expiry of the invitation of a membership",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, err := parseID(args[0], "membership")
		if err != nil {
			return err
		}

		if err := a.memberships.ResendInvite(cmd.Context(), id); err != nil {
			return err
		}
		cmd.Printf("invitation of membership %d resent\n", id)
		return nil
	}),
}
