package teams

import (
	"context"
)

type EventName string

const (
	EventAddedMember        EventName = "added_member"
	EventInvitedUser        EventName = "invited_user"
	EventJoinedTeam         EventName = "joined_team"
	EventPromotedMember     EventName = "promoted_member"
	EventDemotedMember      EventName = "demoted_member"
	EventAcceptedMembership EventName = "accepted_membership"
	EventRejectedMembership EventName = "rejected_membership"
	EventDeclinedInvitation EventName = "declined_invitation"
	EventResentInvite       EventName = "resent_invite"
	EventRemovedMembership  EventName = "removed_membership"
)

// Event is what a Notifier receives after a membership changed. For
// removed_membership, Membership holds the record as it was before the
// deletion and UserID may be 0.
type Event struct {
	Name       EventName  `json:"name"`
	TeamID     int        `json:"teamId"`
	UserID     int        `json:"userId"`
	Membership Membership `json:"membership"`
}

// Notifier is told about membership changes. The transition that emitted
// the event has already been stored when Notify is called, and an error
// returned by Notify never reverts it.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

func NewEvent(name EventName, m Membership) Event {
	return Event{
		Name:       name,
		TeamID:     m.TeamID,
		UserID:     m.UserID,
		Membership: m,
	}
}
