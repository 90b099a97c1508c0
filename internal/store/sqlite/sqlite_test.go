package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/store"
	"github.com/vpleague/auctioneer/internal/store/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func createTeam(t *testing.T, db *sql.DB, name string, purse int) *store.Team {
	t.Helper()
	repo := sqlite.NewTeamRepo(db, clock.Real{})
	team := &store.Team{Name: name, Color: "#00a6fb", PurseAmount: purse, RTMCount: 2}
	if err := repo.Create(context.Background(), team); err != nil {
		t.Fatalf("Create team %s: %v", name, err)
	}
	return team
}

func createPlayer(t *testing.T, db *sql.DB, p *store.Player) *store.Player {
	t.Helper()
	repo := sqlite.NewPlayerRepo(db, clock.Real{})
	if p.Status == "" {
		p.Status = store.StatusUpcoming
	}
	if p.BasePrice == 0 {
		p.BasePrice = 200
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create player %s: %v", p.Name, err)
	}
	return p
}
