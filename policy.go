package teams

// The join policy of a team is derived from its scope and from the
// membership the user already has on it, if any. A zero Membership
// (ID == 0) means the user has none.

// CanApply reports whether the user may apply to the team. Only teams
// requiring an application accept them, and only from users that never
// had a membership, whatever its status.
func CanApply(team Team, m Membership) bool {
	return team.Scope == ScopeApplication && m.ID == 0
}

// CanJoin reports whether the user may join the team directly: anyone on
// an open team, and invitees on every team.
func CanJoin(team Team, m Membership) bool {
	if m.ID == 0 {
		return team.Scope == ScopeOpen
	}
	return m.Status == StatusInvited
}

// CanLeave reports whether the user may leave the team on their own. Only
// plain members can; managers and owners have to be demoted or removed by
// someone else first.
func CanLeave(team Team, m Membership) bool {
	if m.ID == 0 || m.TeamID != team.ID || m.Status.Void() {
		return false
	}
	return m.Role == RoleMember
}

// AutoJoins reports whether claiming an invitation to the team puts the
// invitee on the team right away instead of leaving the membership
// invited.
func AutoJoins(team Team) bool {
	return team.Scope == ScopeOpen
}
