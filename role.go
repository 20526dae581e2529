package teams

import (
	"fmt"
	"strings"
)

// Role governs the administrative capability of a membership within a team.
type Role int

const (
	RoleMember Role = iota
	RoleManager
	RoleOwner
)

var roleNames = map[Role]string{
	RoleMember:  "member",
	RoleManager: "manager",
	RoleOwner:   "owner",
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// CanManage reports whether the role is allowed to run the administrative
// transitions (promote, demote, accept, reject) on other memberships.
func (r Role) CanManage() bool {
	return r == RoleManager || r == RoleOwner
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole returns the role named s, case-insensitive.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if strings.EqualFold(name, s) {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Status is the position of a membership in the application/invitation
// lifecycle.
type Status int

const (
	StatusApplied Status = iota
	StatusInvited
	StatusDeclined
	StatusRejected
	StatusAccepted
	StatusAutoJoined
)

var statusNames = map[Status]string{
	StatusApplied:    "applied",
	StatusInvited:    "invited",
	StatusDeclined:   "declined",
	StatusRejected:   "rejected",
	StatusAccepted:   "accepted",
	StatusAutoJoined: "auto_joined",
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// OnTeam reports whether a membership in this status counts as being part
// of the team.
func (s Status) OnTeam() bool {
	return s == StatusAccepted || s == StatusAutoJoined
}

// Void reports whether the status ended the relationship with the team:
// a declined invitation or a rejected application.
func (s Status) Void() bool {
	return s == StatusDeclined || s == StatusRejected
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// ParseStatus returns the status named s, case-insensitive. "auto-joined"
// is accepted as well as "auto_joined".
func ParseStatus(s string) (Status, error) {
	s = strings.Replace(s, "-", "_", -1)
	for status, name := range statusNames {
		if strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// Scope is the join policy configured on a team.
type Scope int

const (
	ScopeOpen Scope = iota
	ScopeApplication
	ScopeInvitation
)

var scopeNames = map[Scope]string{
	ScopeOpen:        "open",
	ScopeApplication: "application",
	ScopeInvitation:  "invitation",
}

func (s Scope) Valid() bool {
	_, ok := scopeNames[s]
	return ok
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

func (s Scope) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid scope %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	scope, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = scope
	return nil
}

// ParseScope returns the scope named s, case-insensitive.
func ParseScope(s string) (Scope, error) {
	for scope, name := range scopeNames {
		if strings.EqualFold(name, s) {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}
