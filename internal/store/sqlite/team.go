package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/store"
)

const teamColumns = `id, name, color, purse_amount, spent_amount, players_count, rtm_count, created_at, updated_at`

// TeamRepo implements store.TeamRepository using database/sql.
type TeamRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewTeamRepo returns a new TeamRepo.
func NewTeamRepo(db *sql.DB, clk clock.Clock) *TeamRepo {
	return &TeamRepo{db: db, clock: clk}
}

func scanTeam(row interface{ Scan(...any) error }) (*store.Team, error) {
	t := &store.Team{}
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.PurseAmount, &t.SpentAmount,
		&t.PlayersCount, &t.RTMCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TeamRepo) Create(ctx context.Context, t *store.Team) error {
	now := r.clock.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (`+teamColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Color, t.PurseAmount, t.SpentAmount, t.PlayersCount,
		t.RTMCount, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating team: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("creating team: %w", err)
	}
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*store.Team, error) {
	t, err := scanTeam(r.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("team %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return t, nil
}

func (r *TeamRepo) List(ctx context.Context) ([]store.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []store.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}
