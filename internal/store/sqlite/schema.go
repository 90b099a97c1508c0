package sqlite

// schema mirrors the Postgres migration; ids are minted in Go because
// sqlite has no uuid generator.
const schema = `
CREATE TABLE IF NOT EXISTS teams (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL UNIQUE,
    color         TEXT NOT NULL DEFAULT '#00a6fb',
    purse_amount  INTEGER NOT NULL,
    spent_amount  INTEGER NOT NULL DEFAULT 0 CHECK (spent_amount >= 0),
    players_count INTEGER NOT NULL DEFAULT 0 CHECK (players_count >= 0),
    rtm_count     INTEGER NOT NULL DEFAULT 2,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL,
    CHECK (spent_amount <= purse_amount)
);

CREATE TABLE IF NOT EXISTS players (
    id         TEXT PRIMARY KEY,
    league_id  TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    phone      TEXT NOT NULL UNIQUE,
    role       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'upcoming',
    base_price INTEGER NOT NULL DEFAULT 200,
    sold_price INTEGER NOT NULL DEFAULT 0 CHECK (sold_price >= 0),
    team_id    TEXT REFERENCES teams (id),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS players_status_idx ON players (status);
CREATE INDEX IF NOT EXISTS players_team_idx ON players (team_id);

CREATE TABLE IF NOT EXISTS auction_state (
    id                INTEGER PRIMARY KEY CHECK (id = 1),
    status            TEXT NOT NULL DEFAULT 'not_started',
    current_player_id TEXT REFERENCES players (id),
    updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id           TEXT PRIMARY KEY,
    aggregate_id TEXT NOT NULL,
    type         TEXT NOT NULL,
    data         TEXT NOT NULL,
    version      INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS events_aggregate_idx ON events (aggregate_id);
CREATE INDEX IF NOT EXISTS events_type_idx ON events (type);
`
