package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/store"
)

// uniqueViolation is the Postgres error code for unique-constraint breaks.
const uniqueViolation = "23505"

// PlayerRepo implements store.PlayerRepository with sqlx.
type PlayerRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sqlx.DB, clk clock.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clock: clk}
}

func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	query := `INSERT INTO players (league_id, name, phone, role, status, base_price, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	           RETURNING id`
	now := r.clock.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		p.LeagueID, p.Name, p.Phone, p.Role, p.Status, p.BasePrice, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("creating player: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("creating player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*store.Player, error) {
	var p store.Player
	err := r.db.GetContext(ctx, &p, `SELECT * FROM players WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting player by id: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) GetByLeagueID(ctx context.Context, leagueID string) (*store.Player, error) {
	var p store.Player
	err := r.db.GetContext(ctx, &p, `SELECT * FROM players WHERE league_id = $1`, leagueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", leagueID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting player by league_id: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) List(ctx context.Context) ([]store.Player, error) {
	var players []store.Player
	err := r.db.SelectContext(ctx, &players, `SELECT * FROM players ORDER BY league_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepo) ListByTeam(ctx context.Context, teamID string) ([]store.Player, error) {
	var players []store.Player
	err := r.db.SelectContext(ctx, &players,
		`SELECT * FROM players WHERE team_id = $1 ORDER BY sold_price DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing team players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepo) Approve(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'approved', updated_at = $1
		 WHERE id = $2 AND status = 'upcoming'`, "approving player")
}

func (r *PlayerRepo) MarkLive(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'live', updated_at = $1
		 WHERE id = $2 AND status NOT IN ('sold', 'unsold')`, "marking player live")
}

func (r *PlayerRepo) MarkUnsold(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'unsold', updated_at = $1
		 WHERE id = $2 AND status NOT IN ('sold', 'unsold')`, "marking player unsold")
}

func (r *PlayerRepo) Revive(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'approved', updated_at = $1
		 WHERE id = $2 AND status = 'unsold'`, "reviving player")
}

// transition runs a guarded status update; zero affected rows means the
// player vanished or changed status under us.
func (r *PlayerRepo) transition(ctx context.Context, id, query, action string) error {
	result, err := r.db.ExecContext(ctx, query, r.clock.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s %s: %w", action, id, store.ErrStale)
	}
	return nil
}
