package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors shared by all store drivers.
var (
	// ErrNotFound is returned when a player, team or state row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStale is returned when a guarded write matched no rows because
	// another writer changed the row first.
	ErrStale = errors.New("stale state")
	// ErrDuplicate is returned on unique-constraint violations (phone,
	// league id, team name).
	ErrDuplicate = errors.New("duplicate value")
)

// Role is the closed set of player roles. Roles are assigned once at
// registration; the selection policy matches on the enum, never on free text.
type Role string

const (
	RoleKeeper     Role = "keeper"
	RoleBatter     Role = "batter"
	RoleAllRounder Role = "allrounder"
	RoleBowler     Role = "bowler"
)

// SelectionOrder is the fixed role priority for fresh-pool selection.
var SelectionOrder = []Role{RoleKeeper, RoleBatter, RoleAllRounder, RoleBowler}

// ParseRole normalizes a free-text role from a registration form into the
// closed enum. Matching is case-insensitive and whitespace-trimmed and
// accepts the common spellings seen on entry forms.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keeper", "wicket-keeper", "wicketkeeper", "wk":
		return RoleKeeper, nil
	case "batter", "batsman", "bat":
		return RoleBatter, nil
	case "allrounder", "all-rounder", "all rounder":
		return RoleAllRounder, nil
	case "bowler", "bowl":
		return RoleBowler, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// PlayerStatus tracks a player's progress through the auction.
type PlayerStatus string

const (
	StatusUpcoming PlayerStatus = "upcoming"
	StatusApproved PlayerStatus = "approved"
	StatusLive     PlayerStatus = "live"
	StatusSold     PlayerStatus = "sold"
	StatusUnsold   PlayerStatus = "unsold"
)

// Fresh reports whether the status keeps a player in the fresh pool,
// i.e. still eligible for phase-one selection.
func (s PlayerStatus) Fresh() bool {
	return s != StatusSold && s != StatusUnsold
}

// AuctionStatus is the lifecycle state of the single auction run.
type AuctionStatus string

const (
	AuctionNotStarted AuctionStatus = "not_started"
	AuctionLive       AuctionStatus = "live"
	AuctionPaused     AuctionStatus = "paused"
)

// Player is a registered auction entrant.
type Player struct {
	ID        string       `db:"id"`
	LeagueID  string       `db:"league_id"`
	Name      string       `db:"name"`
	Phone     string       `db:"phone"`
	Role      Role         `db:"role"`
	Status    PlayerStatus `db:"status"`
	BasePrice int          `db:"base_price"`
	SoldPrice int          `db:"sold_price"`
	TeamID    *string      `db:"team_id"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// Team is a franchise bidding in the auction. PurseAmount is the budget
// ceiling; SpentAmount and PlayersCount are the ledger. Everything else
// about a team's finances is derived, never stored.
type Team struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Color        string    `db:"color"`
	PurseAmount  int       `db:"purse_amount"`
	SpentAmount  int       `db:"spent_amount"`
	PlayersCount int       `db:"players_count"`
	RTMCount     int       `db:"rtm_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Rules holds the auction parameters the derived figures depend on.
type Rules struct {
	// RosterSize is the maximum squad size per team.
	RosterSize int
	// ReservePrice is the minimum base price reserved per unfilled slot.
	ReservePrice int
}

// DefaultRules returns the league defaults: 15 players per squad, 200
// points reserve per slot.
func DefaultRules() Rules {
	return Rules{RosterSize: 15, ReservePrice: 200}
}

// PurseRemaining is the budget still available to the team.
func (t *Team) PurseRemaining() int {
	return t.PurseAmount - t.SpentAmount
}

// SlotsLeft is the number of unfilled squad slots.
func (t *Team) SlotsLeft(r Rules) int {
	return r.RosterSize - t.PlayersCount
}

// MaxBid is the most the team may spend on its next player while still
// being able to fill every remaining slot at reserve price.
func (t *Team) MaxBid(r Rules) int {
	slots := t.SlotsLeft(r)
	switch {
	case slots <= 0:
		return 0
	case slots == 1:
		return t.PurseRemaining()
	}
	reserved := (slots - 1) * r.ReservePrice
	if bid := t.PurseRemaining() - reserved; bid > 0 {
		return bid
	}
	return 0
}

// AuctionState is the singleton auction control row.
type AuctionState struct {
	ID              int           `db:"id"`
	Status          AuctionStatus `db:"status"`
	CurrentPlayerID *string       `db:"current_player_id"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// PlayerRepository defines player persistence operations. Status
// transitions are guarded: they fail with ErrStale when the row is no
// longer in an eligible status.
type PlayerRepository interface {
	Create(ctx context.Context, p *Player) error
	GetByID(ctx context.Context, id string) (*Player, error)
	GetByLeagueID(ctx context.Context, leagueID string) (*Player, error)
	List(ctx context.Context) ([]Player, error)
	ListByTeam(ctx context.Context, teamID string) ([]Player, error)
	// Approve admits an upcoming registration to the auction pool.
	Approve(ctx context.Context, id string) error
	// MarkLive moves a fresh player in front of the bidders.
	MarkLive(ctx context.Context, id string) error
	// MarkUnsold retires a fresh player from the current round.
	MarkUnsold(ctx context.Context, id string) error
	// Revive returns an unsold player to the fresh pool as approved.
	Revive(ctx context.Context, id string) error
}

// TeamRepository defines team persistence operations.
type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
}

// SaleRepository performs the multi-row financial transactions. Each call
// is a single database transaction; guarded updates that match no rows
// roll back and return ErrStale so no partial financial state can land.
type SaleRepository interface {
	// ApplySale marks the player sold to the team at price and moves the
	// money and the roster slot in the same transaction.
	ApplySale(ctx context.Context, playerID, teamID string, price int) error
	// RevertSale is the exact inverse of ApplySale for one named player.
	RevertSale(ctx context.Context, playerID, teamID string, price int) error
	// Reset wipes every ledger and returns every player to upcoming.
	Reset(ctx context.Context) error
}

// StateRepository manages the singleton auction state row.
type StateRepository interface {
	// Ensure creates the row if absent and returns it.
	Ensure(ctx context.Context) (*AuctionState, error)
	Get(ctx context.Context) (*AuctionState, error)
	SetStatus(ctx context.Context, status AuctionStatus) error
	// SetCurrentPlayer updates the live-player reference; nil clears it.
	SetCurrentPlayer(ctx context.Context, playerID *string) error
}
