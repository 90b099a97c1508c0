package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/store"
)

// SaleRepo implements store.SaleRepository. Every method is one database
// transaction; the guarded updates double-check player status and the
// team's budget/roster headroom, so a stale submission rolls back whole.
type SaleRepo struct {
	db    *sqlx.DB
	rules store.Rules
	clock clock.Clock
}

// NewSaleRepo returns a new SaleRepo.
func NewSaleRepo(db *sqlx.DB, rules store.Rules, clk clock.Clock) *SaleRepo {
	return &SaleRepo{db: db, rules: rules, clock: clk}
}

func (r *SaleRepo) ApplySale(ctx context.Context, playerID, teamID string, price int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sale transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE players SET status = 'sold', sold_price = $1, team_id = $2, updated_at = $3
		 WHERE id = $4 AND status NOT IN ('sold', 'unsold')`,
		price, teamID, now, playerID)
	if err != nil {
		return fmt.Errorf("marking player sold: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("player %s not available for sale: %w", playerID, store.ErrStale)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE teams SET spent_amount = spent_amount + $1, players_count = players_count + 1, updated_at = $2
		 WHERE id = $3 AND spent_amount + $1 <= purse_amount AND players_count < $4`,
		price, now, teamID, r.rules.RosterSize)
	if err != nil {
		return fmt.Errorf("charging team: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("team %s cannot absorb sale: %w", teamID, store.ErrStale)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) RevertSale(ctx context.Context, playerID, teamID string, price int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning revert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE players SET status = 'upcoming', sold_price = 0, team_id = NULL, updated_at = $1
		 WHERE id = $2 AND status = 'sold' AND team_id = $3 AND sold_price = $4`,
		now, playerID, teamID, price)
	if err != nil {
		return fmt.Errorf("reverting player: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("player %s sale changed underfoot: %w", playerID, store.ErrStale)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE teams SET spent_amount = spent_amount - $1, players_count = players_count - 1, updated_at = $2
		 WHERE id = $3 AND spent_amount >= $1 AND players_count >= 1`,
		price, now, teamID)
	if err != nil {
		return fmt.Errorf("refunding team: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("team %s ledger changed underfoot: %w", teamID, store.ErrStale)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing revert: %w", err)
	}
	return nil
}

func (r *SaleRepo) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reset transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock.Now().UTC()

	// Clear the current-player reference first so the players update does
	// not trip the foreign key.
	if _, err := tx.ExecContext(ctx,
		`UPDATE auction_state SET status = 'not_started', current_player_id = NULL, updated_at = $1 WHERE id = 1`,
		now); err != nil {
		return fmt.Errorf("resetting auction state: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE teams SET spent_amount = 0, players_count = 0, updated_at = $1`, now); err != nil {
		return fmt.Errorf("resetting teams: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET status = 'upcoming', sold_price = 0, team_id = NULL, updated_at = $1`, now); err != nil {
		return fmt.Errorf("resetting players: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}
