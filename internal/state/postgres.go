package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jonesrussell/stock-publisher/internal/logger"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 10
	// DefaultConnMaxLifetime is the default maximum lifetime of a connection.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the timeout for the startup connectivity check.
	DefaultPingTimeout = 5 * time.Second
)

// PostgresConfig holds connection settings for the postgres state backend.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewPostgresConnection opens a pooled connection for the state store.
func NewPostgresConnection(cfg PostgresConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// PostgresStore persists the state document in a single JSONB row.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS publisher_state (
//	    id         INT PRIMARY KEY,
//	    document   JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db     *sqlx.DB
	logger logger.Logger
	now    func() time.Time
}

// NewPostgresStore creates a postgres-backed state store.
func NewPostgresStore(db *sqlx.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log,
		now:    time.Now,
	}
}

// Load implements Store.
func (p *PostgresStore) Load(ctx context.Context, profileIDs []string, targeted bool) *State {
	now := p.now().UTC()

	var document []byte
	query := `SELECT document FROM publisher_state WHERE id = 1`

	err := p.db.GetContext(ctx, &document, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p.logger.Info("no state row, initializing defaults",
				logger.Strings("profile_ids", profileIDs))
		} else {
			p.logger.Warn("could not read state row, using defaults", logger.Error(err))
		}
		return p.freshState(ctx, profileIDs, now)
	}

	var s State
	if err := json.Unmarshal(document, &s); err != nil {
		p.logger.Warn("could not parse state document, using defaults", logger.Error(err))
		return p.freshState(ctx, profileIDs, now)
	}
	if s.SchemaVersion > SchemaVersion {
		p.logger.Warn("state document from a newer schema, using defaults",
			logger.Int("document_version", s.SchemaVersion),
			logger.Int("supported_version", SchemaVersion))
		return p.freshState(ctx, profileIDs, now)
	}

	prepare(&s, profileIDs, targeted, now, p.logger)
	return &s
}

// Save implements Store. A single upsert keeps the write atomic.
func (p *PostgresStore) Save(ctx context.Context, s *State) error {
	s.SchemaVersion = SchemaVersion

	document, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	query := `
		INSERT INTO publisher_state (id, document, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := p.db.ExecContext(ctx, query, document, p.now()); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (p *PostgresStore) freshState(ctx context.Context, profileIDs []string, now time.Time) *State {
	s := New(profileIDs, now)
	if err := p.Save(ctx, s); err != nil {
		p.logger.Error("could not persist fresh state document", logger.Error(err))
	}
	return s
}
