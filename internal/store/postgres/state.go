package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/store"
)

// StateRepo implements store.StateRepository over the singleton
// auction_state row (id = 1).
type StateRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewStateRepo returns a new StateRepo.
func NewStateRepo(db *sqlx.DB, clk clock.Clock) *StateRepo {
	return &StateRepo{db: db, clock: clk}
}

func (r *StateRepo) Ensure(ctx context.Context) (*store.AuctionState, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auction_state (id, status, updated_at) VALUES (1, 'not_started', $1)
		 ON CONFLICT (id) DO NOTHING`, r.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("ensuring auction state: %w", err)
	}
	return r.Get(ctx)
}

func (r *StateRepo) Get(ctx context.Context) (*store.AuctionState, error) {
	var st store.AuctionState
	err := r.db.GetContext(ctx, &st, `SELECT * FROM auction_state WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auction state: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting auction state: %w", err)
	}
	return &st, nil
}

func (r *StateRepo) SetStatus(ctx context.Context, status store.AuctionStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auction_state SET status = $1, updated_at = $2 WHERE id = 1`,
		status, r.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting auction status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("auction state: %w", store.ErrNotFound)
	}
	return nil
}

func (r *StateRepo) SetCurrentPlayer(ctx context.Context, playerID *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auction_state SET current_player_id = $1, updated_at = $2 WHERE id = 1`,
		playerID, r.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting current player: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("auction state: %w", store.ErrNotFound)
	}
	return nil
}
