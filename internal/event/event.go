package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	AuctionStarted Type = "auction.started"
	AuctionPaused  Type = "auction.paused"
	AuctionResumed Type = "auction.resumed"
	AuctionReset   Type = "auction.reset"

	PlayerPresented Type = "player.presented"
	PlayerSold      Type = "player.sold"
	PlayerUnsold    Type = "player.unsold"
	PlayerRevived   Type = "player.revived"

	SaleReverted   Type = "sale.reverted"
	UnsoldReverted Type = "unsold.reverted"

	PlayerRegistered Type = "player.registered"
	PlayerApproved   Type = "player.approved"
	TeamCreated      Type = "team.created"
)

// Event represents a single domain event. Events form an append-only audit
// trail; the engine never replays them to rebuild state.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// SaleData is the payload for PlayerSold and SaleReverted events.
type SaleData struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
	Price    int    `json:"price"`
}

// PresentedData is the payload for PlayerPresented events.
type PresentedData struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
	Revived  bool   `json:"revived"`
}

// StatusData is the payload for PlayerUnsold, PlayerRevived and
// UnsoldReverted events.
type StatusData struct {
	PlayerID string `json:"player_id"`
}

// RegisteredData is the payload for PlayerRegistered events.
type RegisteredData struct {
	LeagueID string `json:"league_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// TeamCreatedData is the payload for TeamCreated events.
type TeamCreatedData struct {
	Name  string `json:"name"`
	Purse int    `json:"purse"`
}
