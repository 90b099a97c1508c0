package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/event"
	"github.com/vpleague/auctioneer/internal/store"
)

// stateAggregate is the event-log aggregate id for lifecycle events.
const stateAggregate = "auction"

// Engine owns the auction run: it validates and commits sales, reverses
// them, advances selection and drives the lifecycle state machine. One
// mutex serializes every mutating operation so two admins submitting at
// once can never interleave partial writes; the store guards catch writers
// outside this process.
type Engine struct {
	mu sync.Mutex

	players  store.PlayerRepository
	teams    store.TeamRepository
	sales    store.SaleRepository
	state    store.StateRepository
	events   event.Store
	selector *Selector
	rules    store.Rules

	resetToken string
	logger     *slog.Logger
	tracer     trace.Tracer
	clock      clock.Clock

	salesTotal  metric.Int64Counter
	saleAmounts metric.Int64Histogram
}

// NewEngine creates the auction engine over the opened repositories.
func NewEngine(repos *store.Repositories, sel *Selector, rules store.Rules, resetToken string,
	logger *slog.Logger, tp trace.TracerProvider, mp metric.MeterProvider, clk clock.Clock) (*Engine, error) {

	meter := mp.Meter("github.com/vpleague/auctioneer/internal/auction")
	salesTotal, err := meter.Int64Counter("auction.sales",
		metric.WithDescription("Number of finalized sales"))
	if err != nil {
		return nil, fmt.Errorf("creating sales counter: %w", err)
	}
	saleAmounts, err := meter.Int64Histogram("auction.sale.amount",
		metric.WithDescription("Distribution of winning bid amounts"))
	if err != nil {
		return nil, fmt.Errorf("creating sale amount histogram: %w", err)
	}

	return &Engine{
		players:     repos.Players,
		teams:       repos.Teams,
		sales:       repos.Sales,
		state:       repos.State,
		events:      repos.Events,
		selector:    sel,
		rules:       rules,
		resetToken:  resetToken,
		logger:      logger,
		tracer:      tp.Tracer("github.com/vpleague/auctioneer/internal/auction"),
		clock:       clk,
		salesTotal:  salesTotal,
		saleAmounts: saleAmounts,
	}, nil
}

// Rules returns the auction rules the engine derives budgets from.
func (e *Engine) Rules() store.Rules { return e.rules }

// Bootstrap ensures the singleton auction state row exists. Called once at
// startup before the engine serves requests.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if _, err := e.state.Ensure(ctx); err != nil {
		return fmt.Errorf("ensuring auction state: %w", err)
	}
	return nil
}

// SaleSummary is returned by a successful FinalizeSale.
type SaleSummary struct {
	Player store.Player `json:"player"`
	Team   store.Team   `json:"team"`
	Price  int          `json:"price"`
	// NextPlayerID is the player presented after the sale, empty when the
	// pool is exhausted.
	NextPlayerID string `json:"next_player_id,omitempty"`
}

// TeamStanding is one row of the live team dashboard. The money figures
// are derived from the ledger on every read, never stored.
type TeamStanding struct {
	Team           store.Team `json:"team"`
	PurseRemaining int        `json:"purse_remaining"`
	SlotsLeft      int        `json:"slots_left"`
	MaxBid         int        `json:"max_bid"`
	RTMCount       int        `json:"rtm_count"`
}

// PoolStats summarizes auction progress.
type PoolStats struct {
	Total     int `json:"total"`
	Sold      int `json:"sold"`
	Unsold    int `json:"unsold"`
	Available int `json:"available"`
}

// Start moves the auction to live and, when no player is currently up,
// asks the selection policy to present the first one.
func (e *Engine) Start(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Start")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading auction state: %w", err)
	}
	if st.Status == store.AuctionLive {
		return fmt.Errorf("auction is already live: %w", ErrInvalidState)
	}

	if err := e.state.SetStatus(ctx, store.AuctionLive); err != nil {
		return fmt.Errorf("setting auction live: %w", err)
	}
	e.record(ctx, stateAggregate, event.AuctionStarted, nil)

	if st.CurrentPlayerID == nil {
		if _, err := e.advance(ctx, ""); err != nil {
			return err
		}
	}

	e.logger.InfoContext(ctx, "auction started")
	return nil
}

// Pause suspends bidding; the current player stays on screen.
func (e *Engine) Pause(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Pause")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading auction state: %w", err)
	}
	if st.Status != store.AuctionLive {
		return fmt.Errorf("cannot pause a %s auction: %w", st.Status, ErrInvalidState)
	}
	if err := e.state.SetStatus(ctx, store.AuctionPaused); err != nil {
		return fmt.Errorf("pausing auction: %w", err)
	}
	e.record(ctx, stateAggregate, event.AuctionPaused, nil)
	e.logger.InfoContext(ctx, "auction paused")
	return nil
}

// Resume reopens bidding after a pause.
func (e *Engine) Resume(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Resume")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading auction state: %w", err)
	}
	if st.Status != store.AuctionPaused {
		return fmt.Errorf("cannot resume a %s auction: %w", st.Status, ErrInvalidState)
	}
	if err := e.state.SetStatus(ctx, store.AuctionLive); err != nil {
		return fmt.Errorf("resuming auction: %w", err)
	}
	e.record(ctx, stateAggregate, event.AuctionResumed, nil)
	e.logger.InfoContext(ctx, "auction resumed")
	return nil
}

// CurrentPlayer returns the player up for bidding, or nil when none is.
func (e *Engine) CurrentPlayer(ctx context.Context) (*store.Player, error) {
	st, err := e.state.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading auction state: %w", err)
	}
	if st.CurrentPlayerID == nil {
		return nil, nil
	}
	p, err := e.players.GetByID(ctx, *st.CurrentPlayerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading current player: %w", err)
	}
	return p, nil
}

// State returns the lifecycle state row.
func (e *Engine) State(ctx context.Context) (*store.AuctionState, error) {
	return e.state.Get(ctx)
}

// Dashboard returns the per-team standing with derived budget figures.
// The single list query gives a consistent snapshot without the engine lock.
func (e *Engine) Dashboard(ctx context.Context) ([]TeamStanding, error) {
	teams, err := e.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	standings := make([]TeamStanding, 0, len(teams))
	for _, t := range teams {
		standings = append(standings, TeamStanding{
			Team:           t,
			PurseRemaining: t.PurseRemaining(),
			SlotsLeft:      t.SlotsLeft(e.rules),
			MaxBid:         t.MaxBid(e.rules),
			RTMCount:       t.RTMCount,
		})
	}
	return standings, nil
}

// Stats summarizes the player pool.
func (e *Engine) Stats(ctx context.Context) (*PoolStats, error) {
	pool, err := e.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	stats := &PoolStats{Total: len(pool)}
	for _, p := range pool {
		switch p.Status {
		case store.StatusSold:
			stats.Sold++
		case store.StatusUnsold:
			stats.Unsold++
		default:
			stats.Available++
		}
	}
	return stats, nil
}

// FinalizeSale validates and commits the sale of a player to a team at the
// winning bid. All financial writes land in one store transaction; any
// validation failure leaves every row untouched. On success the selection
// policy immediately presents the next player.
func (e *Engine) FinalizeSale(ctx context.Context, playerID, teamID string, bid int) (*SaleSummary, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.FinalizeSale",
		trace.WithAttributes(
			attribute.String("player.id", playerID),
			attribute.String("team.id", teamID),
			attribute.Int("bid.amount", bid),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if bid < 0 {
		return nil, fmt.Errorf("negative bid %d: %w", bid, ErrInvalidState)
	}

	p, err := e.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, playerErr(playerID, err)
	}
	if !p.Status.Fresh() {
		return nil, fmt.Errorf("player %s is already %s: %w", p.LeagueID, p.Status, ErrInvalidState)
	}

	t, err := e.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, teamErr(teamID, err)
	}
	if t.SlotsLeft(e.rules) <= 0 {
		return nil, fmt.Errorf("team %s has no slot left: %w", t.Name, ErrRosterFull)
	}
	if max := t.MaxBid(e.rules); bid > max {
		return nil, fmt.Errorf("bid %d is above team %s's limit %d: %w", bid, t.Name, max, ErrBudgetExceeded)
	}

	if err := e.sales.ApplySale(ctx, playerID, teamID, bid); err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, fmt.Errorf("sale of player %s: %w", p.LeagueID, ErrConflict)
		}
		return nil, fmt.Errorf("applying sale: %w", err)
	}

	data, _ := json.Marshal(event.SaleData{PlayerID: playerID, TeamID: teamID, Price: bid})
	e.record(ctx, playerID, event.PlayerSold, data)

	e.salesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("team", t.Name)))
	e.saleAmounts.Record(ctx, int64(bid), metric.WithAttributes(attribute.String("team", t.Name)))

	next, err := e.advance(ctx, playerID)
	if err != nil {
		return nil, err
	}

	soldPlayer, err := e.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, playerErr(playerID, err)
	}
	soldTeam, err := e.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, teamErr(teamID, err)
	}

	summary := &SaleSummary{Player: *soldPlayer, Team: *soldTeam, Price: bid}
	if next != nil {
		summary.NextPlayerID = next.ID
	}

	e.logger.InfoContext(ctx, "player sold",
		slog.String("player", soldPlayer.LeagueID),
		slog.String("team", soldTeam.Name),
		slog.Int("price", bid),
	)
	return summary, nil
}

// MarkUnsold retires the player from the current round without touching
// any team ledger, then presents the next player.
func (e *Engine) MarkUnsold(ctx context.Context, playerID string) error {
	ctx, span := e.tracer.Start(ctx, "Engine.MarkUnsold",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.players.GetByID(ctx, playerID)
	if err != nil {
		return playerErr(playerID, err)
	}
	if !p.Status.Fresh() {
		return fmt.Errorf("player %s is already %s: %w", p.LeagueID, p.Status, ErrInvalidState)
	}

	if err := e.players.MarkUnsold(ctx, playerID); err != nil {
		if errors.Is(err, store.ErrStale) {
			return fmt.Errorf("marking player %s unsold: %w", p.LeagueID, ErrConflict)
		}
		return fmt.Errorf("marking player unsold: %w", err)
	}

	data, _ := json.Marshal(event.StatusData{PlayerID: playerID})
	e.record(ctx, playerID, event.PlayerUnsold, data)

	e.logger.InfoContext(ctx, "player unsold", slog.String("player", p.LeagueID))

	_, err = e.advance(ctx, playerID)
	return err
}

// RevertSale undoes the sale of one named player: the team gets its money
// and roster slot back and the player returns to upcoming. This is a
// compensating transaction, not an undo log; the engine keeps no sale
// history, so callers must name the player to revert.
func (e *Engine) RevertSale(ctx context.Context, playerID string) error {
	ctx, span := e.tracer.Start(ctx, "Engine.RevertSale",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.players.GetByID(ctx, playerID)
	if err != nil {
		return playerErr(playerID, err)
	}
	if p.Status != store.StatusSold || p.TeamID == nil {
		return fmt.Errorf("player %s is not sold: %w", p.LeagueID, ErrInvalidState)
	}

	if err := e.sales.RevertSale(ctx, playerID, *p.TeamID, p.SoldPrice); err != nil {
		if errors.Is(err, store.ErrStale) {
			return fmt.Errorf("reverting sale of player %s: %w", p.LeagueID, ErrConflict)
		}
		return fmt.Errorf("reverting sale: %w", err)
	}

	data, _ := json.Marshal(event.SaleData{PlayerID: playerID, TeamID: *p.TeamID, Price: p.SoldPrice})
	e.record(ctx, playerID, event.SaleReverted, data)

	e.logger.InfoContext(ctx, "sale reverted",
		slog.String("player", p.LeagueID),
		slog.Int("price", p.SoldPrice),
	)
	return nil
}

// RevertUnsold re-admits an unsold player to the fresh pool.
func (e *Engine) RevertUnsold(ctx context.Context, playerID string) error {
	ctx, span := e.tracer.Start(ctx, "Engine.RevertUnsold",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.players.GetByID(ctx, playerID)
	if err != nil {
		return playerErr(playerID, err)
	}
	if p.Status != store.StatusUnsold {
		return fmt.Errorf("player %s is not unsold: %w", p.LeagueID, ErrInvalidState)
	}

	if err := e.players.Revive(ctx, playerID); err != nil {
		if errors.Is(err, store.ErrStale) {
			return fmt.Errorf("reverting unsold player %s: %w", p.LeagueID, ErrConflict)
		}
		return fmt.Errorf("reverting unsold player: %w", err)
	}

	data, _ := json.Marshal(event.StatusData{PlayerID: playerID})
	e.record(ctx, playerID, event.UnsoldReverted, data)
	return nil
}

// ResetAll wipes the auction run: every ledger zeroed, every player back to
// upcoming, auction back to not started. Requires the configured
// confirmation token. Registration data itself is untouched.
func (e *Engine) ResetAll(ctx context.Context, token string) error {
	ctx, span := e.tracer.Start(ctx, "Engine.ResetAll")
	defer span.End()

	if token != e.resetToken {
		return ErrResetToken
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sales.Reset(ctx); err != nil {
		return fmt.Errorf("resetting auction: %w", err)
	}

	e.record(ctx, stateAggregate, event.AuctionReset, nil)
	e.logger.WarnContext(ctx, "auction reset performed")
	return nil
}

// advance runs the selection policy and persists its outcome: the picked
// player goes live and becomes current, or the current-player slot is
// cleared when the pool is exhausted. Callers must hold e.mu.
func (e *Engine) advance(ctx context.Context, currentID string) (*store.Player, error) {
	pool, err := e.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}

	pick := e.selector.Next(pool, currentID)
	if pick == nil {
		if err := e.state.SetCurrentPlayer(ctx, nil); err != nil {
			return nil, fmt.Errorf("clearing current player: %w", err)
		}
		e.logger.InfoContext(ctx, "player pool exhausted, auction complete")
		return nil, nil
	}

	if pick.Revived {
		if err := e.players.Revive(ctx, pick.Player.ID); err != nil {
			return nil, fmt.Errorf("reviving player %s: %w", pick.Player.LeagueID, err)
		}
		data, _ := json.Marshal(event.StatusData{PlayerID: pick.Player.ID})
		e.record(ctx, pick.Player.ID, event.PlayerRevived, data)
	}

	if err := e.players.MarkLive(ctx, pick.Player.ID); err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, fmt.Errorf("presenting player %s: %w", pick.Player.LeagueID, ErrConflict)
		}
		return nil, fmt.Errorf("presenting player: %w", err)
	}

	id := pick.Player.ID
	if err := e.state.SetCurrentPlayer(ctx, &id); err != nil {
		return nil, fmt.Errorf("setting current player: %w", err)
	}

	data, _ := json.Marshal(event.PresentedData{
		PlayerID: pick.Player.ID,
		Role:     string(pick.Player.Role),
		Revived:  pick.Revived,
	})
	e.record(ctx, pick.Player.ID, event.PlayerPresented, data)

	e.logger.InfoContext(ctx, "player presented",
		slog.String("player", pick.Player.LeagueID),
		slog.String("role", string(pick.Player.Role)),
		slog.Bool("revived", pick.Revived),
	)

	next := pick.Player
	next.Status = store.StatusLive
	return &next, nil
}

// record appends an audit event; failures are logged, never fatal.
func (e *Engine) record(ctx context.Context, aggregateID string, t event.Type, data json.RawMessage) {
	if data == nil {
		data = json.RawMessage(`{}`)
	}
	evt := event.Event{
		AggregateID: aggregateID,
		Type:        t,
		Data:        data,
		CreatedAt:   e.clock.Now().UTC(),
	}
	if err := e.events.Append(ctx, evt); err != nil {
		e.logger.ErrorContext(ctx, "failed to append event",
			slog.String("type", string(t)),
			slog.Any("error", err),
		)
	}
}

func playerErr(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("loading player %s: %w", id, err)
}

func teamErr(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("loading team %s: %w", id, err)
}
