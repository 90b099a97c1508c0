// Package roster handles everything that happens before the hammer falls:
// player registration, approval, team creation and exports.
package roster

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vpleague/auctioneer/internal/config"
	"github.com/vpleague/auctioneer/internal/event"
	"github.com/vpleague/auctioneer/internal/store"
)

var (
	// ErrDuplicate is returned when a registration or team collides with an
	// existing unique value (phone, league id, team name).
	ErrDuplicate = errors.New("already registered")
	// ErrNotFound is returned when the named player or team does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRole is returned when a registration carries an unknown role.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidInput is returned when a required field is missing.
	ErrInvalidInput = errors.New("invalid input")
)

// leagueIDPrefix is the stable public id scheme. Numbers are gap-filled so
// a deleted registration frees its id for the next signup.
const leagueIDPrefix = "VPL-"

// Manager handles registration and team setup.
type Manager struct {
	players store.PlayerRepository
	teams   store.TeamRepository
	events  event.Store
	cfg     config.AuctionConfig
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewManager returns a new roster Manager.
func NewManager(players store.PlayerRepository, teams store.TeamRepository, events event.Store,
	cfg config.AuctionConfig, logger *slog.Logger, tp trace.TracerProvider) *Manager {
	return &Manager{
		players: players,
		teams:   teams,
		events:  events,
		cfg:     cfg,
		logger:  logger,
		tracer:  tp.Tracer("github.com/vpleague/auctioneer/internal/roster"),
	}
}

// Registration is the input to RegisterPlayer.
type Registration struct {
	Name      string
	Phone     string
	Role      string
	BasePrice int
}

// RegisterPlayer validates a signup and stores it as an upcoming player
// with the next free league id.
func (m *Manager) RegisterPlayer(ctx context.Context, reg Registration) (*store.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.RegisterPlayer",
		trace.WithAttributes(attribute.String("player.name", reg.Name)),
	)
	defer span.End()

	role, err := store.ParseRole(reg.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reg.Role, ErrInvalidRole)
	}
	if reg.Name == "" || reg.Phone == "" {
		return nil, fmt.Errorf("name and phone are required: %w", ErrInvalidInput)
	}

	basePrice := reg.BasePrice
	if basePrice <= 0 {
		basePrice = m.cfg.ReservePrice
	}

	leagueID, err := m.nextLeagueID(ctx)
	if err != nil {
		return nil, err
	}

	p := &store.Player{
		LeagueID:  leagueID,
		Name:      reg.Name,
		Phone:     reg.Phone,
		Role:      role,
		Status:    store.StatusUpcoming,
		BasePrice: basePrice,
	}
	if err := m.players.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("player with this phone or id: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("creating player: %w", err)
	}

	data, _ := json.Marshal(event.RegisteredData{
		LeagueID: leagueID,
		Name:     reg.Name,
		Role:     string(role),
	})
	evt := event.Event{
		AggregateID: p.ID,
		Type:        event.PlayerRegistered,
		Data:        data,
		Version:     1,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append player registered event", slog.Any("error", err))
	}

	m.logger.InfoContext(ctx, "player registered",
		slog.String("league_id", leagueID),
		slog.String("name", reg.Name),
		slog.String("role", string(role)),
	)
	return p, nil
}

// nextLeagueID finds the lowest free VPL-NNN number. Gaps left by removed
// registrations are reused before the sequence grows.
func (m *Manager) nextLeagueID(ctx context.Context) (string, error) {
	players, err := m.players.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing players: %w", err)
	}

	taken := make(map[int]bool, len(players))
	for _, p := range players {
		if len(p.LeagueID) <= len(leagueIDPrefix) {
			continue
		}
		if n, err := strconv.Atoi(p.LeagueID[len(leagueIDPrefix):]); err == nil {
			taken[n] = true
		}
	}

	n := 1
	for taken[n] {
		n++
	}
	return fmt.Sprintf("%s%03d", leagueIDPrefix, n), nil
}

// ApprovePlayer admits an upcoming registration to the auction pool.
func (m *Manager) ApprovePlayer(ctx context.Context, playerID string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.ApprovePlayer",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	p, err := m.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
		}
		return fmt.Errorf("loading player: %w", err)
	}

	if err := m.players.Approve(ctx, playerID); err != nil {
		return fmt.Errorf("approving player %s: %w", p.LeagueID, err)
	}

	data, _ := json.Marshal(event.StatusData{PlayerID: playerID})
	evt := event.Event{AggregateID: playerID, Type: event.PlayerApproved, Data: data}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append player approved event", slog.Any("error", err))
	}

	m.logger.InfoContext(ctx, "player approved", slog.String("league_id", p.LeagueID))
	return nil
}

// GetPlayer returns a player by league id.
func (m *Manager) GetPlayer(ctx context.Context, leagueID string) (*store.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.GetPlayer")
	defer span.End()

	p, err := m.players.GetByLeagueID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("player %s: %w", leagueID, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// ListPlayers returns all registered players ordered by league id.
func (m *Manager) ListPlayers(ctx context.Context) ([]store.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.ListPlayers")
	defer span.End()

	return m.players.List(ctx)
}

// CreateTeam creates a franchise with the configured default purse and
// right-to-match allowance.
func (m *Manager) CreateTeam(ctx context.Context, name, color string) (*store.Team, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.CreateTeam",
		trace.WithAttributes(attribute.String("team.name", name)),
	)
	defer span.End()

	if name == "" {
		return nil, fmt.Errorf("team name is required: %w", ErrInvalidInput)
	}
	if color == "" {
		color = "#00a6fb"
	}

	t := &store.Team{
		Name:        name,
		Color:       color,
		PurseAmount: m.cfg.DefaultPurse,
		RTMCount:    m.cfg.DefaultRTM,
	}
	if err := m.teams.Create(ctx, t); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("team %s: %w", name, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating team: %w", err)
	}

	data, _ := json.Marshal(event.TeamCreatedData{Name: name, Purse: t.PurseAmount})
	evt := event.Event{AggregateID: t.ID, Type: event.TeamCreated, Data: data, Version: 1}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append team created event", slog.Any("error", err))
	}

	m.logger.InfoContext(ctx, "team created",
		slog.String("team", name),
		slog.Int("purse", t.PurseAmount),
	)
	return t, nil
}

// ListTeams returns all franchises.
func (m *Manager) ListTeams(ctx context.Context) ([]store.Team, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.ListTeams")
	defer span.End()

	return m.teams.List(ctx)
}

// TeamRoster returns a team and its bought players, priciest first.
func (m *Manager) TeamRoster(ctx context.Context, teamID string) (*store.Team, []store.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.TeamRoster",
		trace.WithAttributes(attribute.String("team.id", teamID)),
	)
	defer span.End()

	t, err := m.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
		}
		return nil, nil, err
	}
	players, err := m.players.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing team players: %w", err)
	}
	return t, players, nil
}

// ExportTeamRosterCSV writes one franchise's bought players as CSV with a
// closing total row, the layout the league hands to team owners.
func (m *Manager) ExportTeamRosterCSV(ctx context.Context, teamID string, w io.Writer) error {
	ctx, span := m.tracer.Start(ctx, "Manager.ExportTeamRosterCSV",
		trace.WithAttributes(attribute.String("team.id", teamID)),
	)
	defer span.End()

	t, players, err := m.TeamRoster(ctx, teamID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"team", "league_id", "name", "role", "sold_price"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	total := 0
	for _, p := range players {
		total += p.SoldPrice
		row := []string{t.Name, p.LeagueID, p.Name, string(p.Role), strconv.Itoa(p.SoldPrice)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	if err := cw.Write([]string{t.Name, "", "total", "", strconv.Itoa(total)}); err != nil {
		return fmt.Errorf("writing csv total row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ExportPlayersCSV writes the full player list as CSV.
func (m *Manager) ExportPlayersCSV(ctx context.Context, w io.Writer) error {
	ctx, span := m.tracer.Start(ctx, "Manager.ExportPlayersCSV")
	defer span.End()

	players, err := m.players.List(ctx)
	if err != nil {
		return fmt.Errorf("listing players: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"league_id", "name", "phone", "role", "status", "base_price", "sold_price", "team_id"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, p := range players {
		teamID := ""
		if p.TeamID != nil {
			teamID = *p.TeamID
		}
		row := []string{
			p.LeagueID, p.Name, p.Phone, string(p.Role), string(p.Status),
			strconv.Itoa(p.BasePrice), strconv.Itoa(p.SoldPrice), teamID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
