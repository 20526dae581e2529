package teams

import (
	"context"
	"strings"
	"time"
)

type Team struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Scope         Scope `json:"scope"`
	PublicVisible bool  `json:"publicVisible"`

	CreatorID int       `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamRepository stores teams. Get returns a zero Team (ID == 0) when
// there is no team for the given id.
type TeamRepository interface {
	Get(ctx context.Context, id int) (Team, error)
	List(ctx context.Context, publicOnly bool) ([]Team, error)

	// Upsert inserts the team when its ID is 0, setting ID and CreatedAt,
	// and updates it otherwise.
	Upsert(ctx context.Context, team *Team) error
	Delete(ctx context.Context, id int) error
}

// Transactor runs fn so that every repository call made with the context
// it receives is part of the same atomic unit of work.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Blacklist tells whether a team name is reserved.
type Blacklist interface {
	Reserved(name string) bool
}

// NameBlacklist is a case-insensitive set of reserved team names.
type NameBlacklist map[string]struct{}

func NewNameBlacklist(names ...string) NameBlacklist {
	b := make(NameBlacklist, len(names))
	for _, name := range names {
		b[strings.ToLower(name)] = struct{}{}
	}
	return b
}

func (b NameBlacklist) Reserved(name string) bool {
	_, ok := b[strings.ToLower(name)]
	return ok
}
