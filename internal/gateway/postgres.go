package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	_ "github.com/lib/pq"
)

// PostgresOptions configures the connection pool
type PostgresOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresClient implements PlayerStore against a players table
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient opens and pings a PostgreSQL connection
func NewPostgresClient(opts PostgresOptions) (*PostgresClient, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(orDefault(opts.MaxOpenConns, 25))
	db.SetMaxIdleConns(orDefault(opts.MaxIdleConns, 5))
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// EnsureSchema creates the players table if it does not exist
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			id       BIGSERIAL PRIMARY KEY,
			name     TEXT NOT NULL,
			pa       INTEGER NOT NULL DEFAULT 0,
			hits     INTEGER NOT NULL DEFAULT 0,
			"double" INTEGER NOT NULL DEFAULT 0,
			triple   INTEGER NOT NULL DEFAULT 0,
			homerun  INTEGER NOT NULL DEFAULT 0,
			walks    INTEGER NOT NULL DEFAULT 0,
			sb       INTEGER NOT NULL DEFAULT 0,
			sb_fail  INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("create players table: %w", err)
	}
	return nil
}

// ListPlayers retrieves all players ordered by id
func (c *PostgresClient) ListPlayers(ctx context.Context) ([]models.PlayerRecord, error) {
	query := `
		SELECT id, name, pa, hits, "double", triple, homerun, walks, sb,
		       COALESCE(sb_fail, 0)
		FROM players
		ORDER BY id ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []models.PlayerRecord
	for rows.Next() {
		var p models.PlayerRecord
		if err := rows.Scan(
			&p.ID, &p.Name, &p.PA, &p.Hits, &p.Double, &p.Triple,
			&p.Homerun, &p.Walks, &p.SB, &p.SBFail,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}

	return players, nil
}

// InsertPlayer stores one row and lets the sequence assign its id
func (c *PostgresClient) InsertPlayer(ctx context.Context, p models.NewPlayer) error {
	query := `
		INSERT INTO players (name, pa, hits, "double", triple, homerun, walks, sb, sb_fail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := c.db.ExecContext(ctx, query,
		p.Name, p.PA, p.Hits, p.Double, p.Triple, p.Homerun, p.Walks, p.SB, p.SBFail,
	)
	if err != nil {
		return &Error{Op: "insert", Message: err.Error(), Err: err}
	}
	return nil
}

// DeletePlayer removes the row matching id; zero rows affected is not an error
func (c *PostgresClient) DeletePlayer(ctx context.Context, id int64) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id); err != nil {
		return &Error{Op: "delete", Message: err.Error(), Err: err}
	}
	return nil
}

// Ping checks database connectivity
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	return c.db.Close()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
