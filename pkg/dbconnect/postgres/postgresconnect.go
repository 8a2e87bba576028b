package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"

	"golistingsync_api/config"
)

const dbMaxOpenConns = 20
const maxConnectTries = 10
const maxConnectElapsed = 2 * time.Minute

type PostgresDatabase struct {
	config.DatabaseConfig
	db *sql.DB
	mu sync.Mutex
}

func NewPgConnector(dbConfig config.DatabaseConfig) *PostgresDatabase {
	return &PostgresDatabase{DatabaseConfig: dbConfig}
}

// Connect opens the pool lazily and retries with exponential backoff until
// the database answers a ping.
func (pg *PostgresDatabase) Connect() (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	conStr := pg.GetConnectionString()

	db, err := backoff.Retry(context.Background(), func() (*sql.DB, error) {
		db, err := sql.Open("postgres", conStr)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(dbMaxOpenConns)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxConnectTries),
		backoff.WithMaxElapsedTime(maxConnectElapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	pg.db = db
	return pg.db, nil
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.Ping(); err != nil {
		pg.db.Close()
		pg.db = nil
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}
