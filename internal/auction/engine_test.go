package auction_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	mnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vpleague/auctioneer/internal/auction"
	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/event"
	"github.com/vpleague/auctioneer/internal/store"
)

var (
	testTP  = noop.NewTracerProvider()
	testMP  = mnoop.NewMeterProvider()
	testClk = &clock.Mock{T: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
)

// memStore is an in-memory implementation of every repository interface,
// enforcing the same guards as the SQL drivers so conflict paths are
// exercisable without a database.
type memStore struct {
	players map[string]*store.Player
	teams   map[string]*store.Team
	state   store.AuctionState
	events  []event.Event
	rules   store.Rules

	saleErr error
}

func newMemStore(rules store.Rules) *memStore {
	return &memStore{
		players: make(map[string]*store.Player),
		teams:   make(map[string]*store.Team),
		state:   store.AuctionState{ID: 1, Status: store.AuctionNotStarted},
		rules:   rules,
	}
}

func (m *memStore) Create(_ context.Context, p *store.Player) error {
	m.players[p.ID] = p
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*store.Player, error) {
	p, ok := m.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByLeagueID(_ context.Context, leagueID string) (*store.Player, error) {
	for _, p := range m.players {
		if p.LeagueID == leagueID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) List(_ context.Context) ([]store.Player, error) {
	result := make([]store.Player, 0, len(m.players))
	for _, p := range m.players {
		result = append(result, *p)
	}
	return result, nil
}

func (m *memStore) ListByTeam(_ context.Context, teamID string) ([]store.Player, error) {
	var result []store.Player
	for _, p := range m.players {
		if p.TeamID != nil && *p.TeamID == teamID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *memStore) Approve(_ context.Context, id string) error {
	p, ok := m.players[id]
	if !ok || p.Status != store.StatusUpcoming {
		return store.ErrStale
	}
	p.Status = store.StatusApproved
	return nil
}

func (m *memStore) MarkLive(_ context.Context, id string) error {
	p, ok := m.players[id]
	if !ok || !p.Status.Fresh() {
		return store.ErrStale
	}
	p.Status = store.StatusLive
	return nil
}

func (m *memStore) MarkUnsold(_ context.Context, id string) error {
	p, ok := m.players[id]
	if !ok || !p.Status.Fresh() {
		return store.ErrStale
	}
	p.Status = store.StatusUnsold
	return nil
}

func (m *memStore) Revive(_ context.Context, id string) error {
	p, ok := m.players[id]
	if !ok || p.Status != store.StatusUnsold {
		return store.ErrStale
	}
	p.Status = store.StatusApproved
	return nil
}

func (m *memStore) CreateTeam(_ context.Context, t *store.Team) error {
	m.teams[t.ID] = t
	return nil
}

func (m *memStore) GetTeamByID(_ context.Context, id string) (*store.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTeams(_ context.Context) ([]store.Team, error) {
	result := make([]store.Team, 0, len(m.teams))
	for _, t := range m.teams {
		result = append(result, *t)
	}
	return result, nil
}

func (m *memStore) ApplySale(_ context.Context, playerID, teamID string, price int) error {
	if m.saleErr != nil {
		return m.saleErr
	}
	p, ok := m.players[playerID]
	if !ok || !p.Status.Fresh() {
		return store.ErrStale
	}
	t, ok := m.teams[teamID]
	if !ok || t.SpentAmount+price > t.PurseAmount || t.PlayersCount >= m.rules.RosterSize {
		return store.ErrStale
	}
	p.Status = store.StatusSold
	p.SoldPrice = price
	p.TeamID = &teamID
	t.SpentAmount += price
	t.PlayersCount++
	return nil
}

func (m *memStore) RevertSale(_ context.Context, playerID, teamID string, price int) error {
	p, ok := m.players[playerID]
	if !ok || p.Status != store.StatusSold || p.TeamID == nil || *p.TeamID != teamID || p.SoldPrice != price {
		return store.ErrStale
	}
	t, ok := m.teams[teamID]
	if !ok || t.SpentAmount < price || t.PlayersCount < 1 {
		return store.ErrStale
	}
	p.Status = store.StatusUpcoming
	p.SoldPrice = 0
	p.TeamID = nil
	t.SpentAmount -= price
	t.PlayersCount--
	return nil
}

func (m *memStore) Reset(_ context.Context) error {
	m.state.Status = store.AuctionNotStarted
	m.state.CurrentPlayerID = nil
	for _, t := range m.teams {
		t.SpentAmount = 0
		t.PlayersCount = 0
	}
	for _, p := range m.players {
		p.Status = store.StatusUpcoming
		p.SoldPrice = 0
		p.TeamID = nil
	}
	return nil
}

func (m *memStore) Ensure(_ context.Context) (*store.AuctionState, error) {
	cp := m.state
	return &cp, nil
}

func (m *memStore) Get(_ context.Context) (*store.AuctionState, error) {
	cp := m.state
	return &cp, nil
}

func (m *memStore) SetStatus(_ context.Context, status store.AuctionStatus) error {
	m.state.Status = status
	return nil
}

func (m *memStore) SetCurrentPlayer(_ context.Context, playerID *string) error {
	m.state.CurrentPlayerID = playerID
	return nil
}

func (m *memStore) Append(_ context.Context, events ...event.Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *memStore) Load(_ context.Context, aggregateID string) ([]event.Event, error) {
	var result []event.Event
	for _, e := range m.events {
		if e.AggregateID == aggregateID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *memStore) LoadByType(_ context.Context, eventType event.Type) ([]event.Event, error) {
	var result []event.Event
	for _, e := range m.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *memStore) countByType(eventType event.Type) int {
	n := 0
	for _, e := range m.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// teamRepo adapts memStore's team methods to store.TeamRepository.
type teamRepo struct{ *memStore }

func (r teamRepo) Create(ctx context.Context, t *store.Team) error { return r.CreateTeam(ctx, t) }
func (r teamRepo) GetByID(ctx context.Context, id string) (*store.Team, error) {
	return r.GetTeamByID(ctx, id)
}
func (r teamRepo) List(ctx context.Context) ([]store.Team, error) { return r.ListTeams(ctx) }

func newTestEngine(t *testing.T, ms *memStore) *auction.Engine {
	t.Helper()
	repos := &store.Repositories{
		Players: ms,
		Teams:   teamRepo{ms},
		Sales:   ms,
		State:   ms,
		Events:  ms,
	}
	eng, err := auction.NewEngine(repos, auction.NewSelector(1), ms.rules, "reset-me",
		slog.Default(), testTP, testMP, testClk)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func seedPool(ms *memStore, n int, role store.Role) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", role, i+1)
		ms.players[id] = &store.Player{
			ID: id, LeagueID: id, Role: role,
			Status: store.StatusUpcoming, BasePrice: 200,
		}
	}
}

func seedTeam(ms *memStore, id string, purse int) {
	ms.teams[id] = &store.Team{ID: id, Name: id, PurseAmount: purse, RTMCount: 2}
}

// --- tests ---

func TestEngine_StartPresentsFirstPlayer(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 3, store.RoleKeeper)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	st, _ := eng.State(ctx)
	if st.Status != store.AuctionLive {
		t.Errorf("status = %q, want %q", st.Status, store.AuctionLive)
	}
	current, err := eng.CurrentPlayer(ctx)
	if err != nil {
		t.Fatalf("CurrentPlayer: %v", err)
	}
	if current == nil {
		t.Fatal("expected a current player after Start")
	}
	if current.Status != store.StatusLive {
		t.Errorf("current player status = %q, want %q", current.Status, store.StatusLive)
	}
	if ms.countByType(event.AuctionStarted) != 1 {
		t.Error("expected an auction started event")
	}
	if ms.countByType(event.PlayerPresented) != 1 {
		t.Error("expected a player presented event")
	}
}

func TestEngine_StartTwice(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleBatter)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.Start(ctx); !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("second Start: err = %v, want ErrInvalidState", err)
	}
}

func TestEngine_PauseResume(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleBatter)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	// Pausing before start is invalid.
	if err := eng.Pause(ctx); !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("Pause before start: err = %v, want ErrInvalidState", err)
	}

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)

	if err := eng.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	st, _ := eng.State(ctx)
	if st.Status != store.AuctionPaused {
		t.Errorf("status = %q, want %q", st.Status, store.AuctionPaused)
	}

	// The displayed player survives the pause.
	afterPause, _ := eng.CurrentPlayer(ctx)
	if afterPause == nil || afterPause.ID != current.ID {
		t.Error("pause changed the current player")
	}

	if err := eng.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := eng.Resume(ctx); !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("Resume while live: err = %v, want ErrInvalidState", err)
	}
}

func TestEngine_FinalizeSale(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 2, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)

	summary, err := eng.FinalizeSale(ctx, current.ID, "strikers", 1500)
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	if summary.Price != 1500 {
		t.Errorf("Price = %d, want 1500", summary.Price)
	}
	if summary.Player.Status != store.StatusSold {
		t.Errorf("player status = %q, want %q", summary.Player.Status, store.StatusSold)
	}
	if summary.Team.SpentAmount != 1500 || summary.Team.PlayersCount != 1 {
		t.Errorf("team ledger: spent=%d count=%d", summary.Team.SpentAmount, summary.Team.PlayersCount)
	}
	if summary.NextPlayerID == "" {
		t.Error("expected the next player to be presented")
	}
	if summary.NextPlayerID == current.ID {
		t.Error("sold player presented again")
	}
	if ms.countByType(event.PlayerSold) != 1 {
		t.Error("expected a player sold event")
	}
}

func TestEngine_FinalizeSale_BudgetExceeded(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)

	// Max bid with an empty 15-slot roster is 10000 - 14*200 = 7200.
	_, err := eng.FinalizeSale(ctx, current.ID, "strikers", 7201)
	if !errors.Is(err, auction.ErrBudgetExceeded) {
		t.Fatalf("FinalizeSale: err = %v, want ErrBudgetExceeded", err)
	}

	// Nothing must have moved.
	team, _ := ms.GetTeamByID(ctx, "strikers")
	if team.SpentAmount != 0 || team.PlayersCount != 0 {
		t.Errorf("team ledger touched: spent=%d count=%d", team.SpentAmount, team.PlayersCount)
	}
	p, _ := ms.GetByID(ctx, current.ID)
	if p.Status != store.StatusLive {
		t.Errorf("player status = %q, want %q", p.Status, store.StatusLive)
	}

	// The exact limit goes through.
	if _, err := eng.FinalizeSale(ctx, current.ID, "strikers", 7200); err != nil {
		t.Fatalf("FinalizeSale at limit: %v", err)
	}
}

func TestEngine_FinalizeSale_RosterFull(t *testing.T) {
	rules := store.Rules{RosterSize: 1, ReservePrice: 200}
	ms := newMemStore(rules)
	seedPool(ms, 2, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	ms.teams["strikers"].PlayersCount = 1
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)

	_, err := eng.FinalizeSale(ctx, current.ID, "strikers", 500)
	if !errors.Is(err, auction.ErrRosterFull) {
		t.Fatalf("FinalizeSale: err = %v, want ErrRosterFull", err)
	}
}

func TestEngine_FinalizeSale_SettledPlayer(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	ms.players["keeper-1"].Status = store.StatusSold
	eng := newTestEngine(t, ms)

	_, err := eng.FinalizeSale(context.Background(), "keeper-1", "strikers", 500)
	if !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("FinalizeSale: err = %v, want ErrInvalidState", err)
	}
}

func TestEngine_FinalizeSale_UnknownIDs(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if _, err := eng.FinalizeSale(ctx, "ghost", "strikers", 500); !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("unknown player: err = %v, want ErrNotFound", err)
	}
	if _, err := eng.FinalizeSale(ctx, "keeper-1", "ghost", 500); !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("unknown team: err = %v, want ErrNotFound", err)
	}
}

func TestEngine_FinalizeSale_StoreConflict(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	ms.saleErr = store.ErrStale
	eng := newTestEngine(t, ms)

	_, err := eng.FinalizeSale(context.Background(), "keeper-1", "strikers", 500)
	if !errors.Is(err, auction.ErrConflict) {
		t.Fatalf("FinalizeSale: err = %v, want ErrConflict", err)
	}
}

func TestEngine_MarkUnsoldAdvances(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 2, store.RoleBatter)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)

	if err := eng.MarkUnsold(ctx, current.ID); err != nil {
		t.Fatalf("MarkUnsold: %v", err)
	}

	p, _ := ms.GetByID(ctx, current.ID)
	if p.Status != store.StatusUnsold {
		t.Errorf("status = %q, want %q", p.Status, store.StatusUnsold)
	}
	next, _ := eng.CurrentPlayer(ctx)
	if next == nil || next.ID == current.ID {
		t.Error("expected a different player to be presented")
	}

	// An already settled player cannot be marked again.
	if err := eng.MarkUnsold(ctx, current.ID); !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("MarkUnsold twice: err = %v, want ErrInvalidState", err)
	}
}

func TestEngine_UnsoldPlayersComeBack(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 2, store.RoleBowler)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Pass on both players; the second pass must revive from the unsold
	// pile instead of ending the auction.
	first, _ := eng.CurrentPlayer(ctx)
	if err := eng.MarkUnsold(ctx, first.ID); err != nil {
		t.Fatalf("MarkUnsold(first): %v", err)
	}
	second, _ := eng.CurrentPlayer(ctx)
	if err := eng.MarkUnsold(ctx, second.ID); err != nil {
		t.Fatalf("MarkUnsold(second): %v", err)
	}

	revived, _ := eng.CurrentPlayer(ctx)
	if revived == nil {
		t.Fatal("expected a revived player")
	}
	if ms.countByType(event.PlayerRevived) == 0 {
		t.Error("expected a player revived event")
	}
}

func TestEngine_RevertSale(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 2, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)
	if _, err := eng.FinalizeSale(ctx, current.ID, "strikers", 1500); err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	afterSale, _ := eng.CurrentPlayer(ctx)

	if err := eng.RevertSale(ctx, current.ID); err != nil {
		t.Fatalf("RevertSale: %v", err)
	}

	p, _ := ms.GetByID(ctx, current.ID)
	if p.Status != store.StatusUpcoming || p.TeamID != nil || p.SoldPrice != 0 {
		t.Errorf("player after revert: status=%q team=%v price=%d", p.Status, p.TeamID, p.SoldPrice)
	}
	team, _ := ms.GetTeamByID(ctx, "strikers")
	if team.SpentAmount != 0 || team.PlayersCount != 0 {
		t.Errorf("team after revert: spent=%d count=%d", team.SpentAmount, team.PlayersCount)
	}

	// Reverting must not disturb the player currently on screen.
	still, _ := eng.CurrentPlayer(ctx)
	if still == nil || still.ID != afterSale.ID {
		t.Error("revert changed the current player")
	}

	// A player who is not sold cannot be reverted.
	if err := eng.RevertSale(ctx, current.ID); !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("second RevertSale: err = %v, want ErrInvalidState", err)
	}
}

func TestEngine_RevertUnsold(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleBatter)
	ms.players["batter-1"].Status = store.StatusUnsold
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.RevertUnsold(ctx, "batter-1"); err != nil {
		t.Fatalf("RevertUnsold: %v", err)
	}
	p, _ := ms.GetByID(ctx, "batter-1")
	if p.Status != store.StatusApproved {
		t.Errorf("status = %q, want %q", p.Status, store.StatusApproved)
	}

	if err := eng.RevertUnsold(ctx, "batter-1"); !errors.Is(err, auction.ErrInvalidState) {
		t.Fatalf("RevertUnsold on approved: err = %v, want ErrInvalidState", err)
	}
}

func TestEngine_ResetAll(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 2, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)
	if _, err := eng.FinalizeSale(ctx, current.ID, "strikers", 1500); err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}

	if err := eng.ResetAll(ctx, "wrong-token"); !errors.Is(err, auction.ErrResetToken) {
		t.Fatalf("ResetAll with bad token: err = %v, want ErrResetToken", err)
	}

	if err := eng.ResetAll(ctx, "reset-me"); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}

	st, _ := eng.State(ctx)
	if st.Status != store.AuctionNotStarted || st.CurrentPlayerID != nil {
		t.Errorf("state after reset: status=%q current=%v", st.Status, st.CurrentPlayerID)
	}
	team, _ := ms.GetTeamByID(ctx, "strikers")
	if team.SpentAmount != 0 || team.PlayersCount != 0 {
		t.Errorf("team after reset: spent=%d count=%d", team.SpentAmount, team.PlayersCount)
	}
	for id := range ms.players {
		p, _ := ms.GetByID(ctx, id)
		if p.Status != store.StatusUpcoming {
			t.Errorf("player %s status = %q, want %q", id, p.Status, store.StatusUpcoming)
		}
	}
	if ms.countByType(event.AuctionReset) != 1 {
		t.Error("expected an auction reset event")
	}
}

func TestEngine_PoolExhaustion(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 1, store.RoleKeeper)
	seedTeam(ms, "strikers", 10000)
	eng := newTestEngine(t, ms)
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	current, _ := eng.CurrentPlayer(ctx)

	summary, err := eng.FinalizeSale(ctx, current.ID, "strikers", 500)
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	if summary.NextPlayerID != "" {
		t.Errorf("NextPlayerID = %q, want empty", summary.NextPlayerID)
	}
	none, err := eng.CurrentPlayer(ctx)
	if err != nil {
		t.Fatalf("CurrentPlayer: %v", err)
	}
	if none != nil {
		t.Errorf("current player = %v, want nil", none)
	}
}

func TestEngine_Dashboard(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedTeam(ms, "strikers", 10000)
	ms.teams["strikers"].SpentAmount = 9000
	ms.teams["strikers"].PlayersCount = 12
	eng := newTestEngine(t, ms)

	standings, err := eng.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(standings) != 1 {
		t.Fatalf("got %d standings, want 1", len(standings))
	}
	s := standings[0]
	if s.PurseRemaining != 1000 {
		t.Errorf("PurseRemaining = %d, want 1000", s.PurseRemaining)
	}
	if s.SlotsLeft != 3 {
		t.Errorf("SlotsLeft = %d, want 3", s.SlotsLeft)
	}
	// 1000 - 2*200
	if s.MaxBid != 600 {
		t.Errorf("MaxBid = %d, want 600", s.MaxBid)
	}
}

func TestEngine_Stats(t *testing.T) {
	ms := newMemStore(store.DefaultRules())
	seedPool(ms, 4, store.RoleBatter)
	ms.players["batter-1"].Status = store.StatusSold
	ms.players["batter-2"].Status = store.StatusUnsold
	eng := newTestEngine(t, ms)

	stats, err := eng.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.Sold != 1 || stats.Unsold != 1 || stats.Available != 2 {
		t.Errorf("stats = %+v", stats)
	}
}
