package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/store"
)

// isUniqueViolation reports whether err is a sqlite unique-constraint break.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

const playerColumns = `id, league_id, name, phone, role, status, base_price, sold_price, team_id, created_at, updated_at`

// PlayerRepo implements store.PlayerRepository using database/sql.
type PlayerRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sql.DB, clk clock.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clock: clk}
}

func scanPlayer(row interface{ Scan(...any) error }) (*store.Player, error) {
	p := &store.Player{}
	err := row.Scan(&p.ID, &p.LeagueID, &p.Name, &p.Phone, &p.Role, &p.Status,
		&p.BasePrice, &p.SoldPrice, &p.TeamID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	now := r.clock.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LeagueID, p.Name, p.Phone, p.Role, p.Status,
		p.BasePrice, p.SoldPrice, p.TeamID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating player: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("creating player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*store.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting player by id: %w", err)
	}
	return p, nil
}

func (r *PlayerRepo) GetByLeagueID(ctx context.Context, leagueID string) (*store.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE league_id = ?`, leagueID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", leagueID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting player by league_id: %w", err)
	}
	return p, nil
}

func (r *PlayerRepo) List(ctx context.Context) ([]store.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players ORDER BY league_id ASC`)
}

func (r *PlayerRepo) ListByTeam(ctx context.Context, teamID string) ([]store.Player, error) {
	return r.list(ctx,
		`SELECT `+playerColumns+` FROM players WHERE team_id = ? ORDER BY sold_price DESC`, teamID)
}

func (r *PlayerRepo) list(ctx context.Context, query string, args ...any) ([]store.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []store.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (r *PlayerRepo) Approve(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'approved', updated_at = ?
		 WHERE id = ? AND status = 'upcoming'`, "approving player")
}

func (r *PlayerRepo) MarkLive(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'live', updated_at = ?
		 WHERE id = ? AND status NOT IN ('sold', 'unsold')`, "marking player live")
}

func (r *PlayerRepo) MarkUnsold(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'unsold', updated_at = ?
		 WHERE id = ? AND status NOT IN ('sold', 'unsold')`, "marking player unsold")
}

func (r *PlayerRepo) Revive(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		`UPDATE players SET status = 'approved', updated_at = ?
		 WHERE id = ? AND status = 'unsold'`, "reviving player")
}

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
