package listings

import (
	"database/sql"
	"fmt"
	"log"
)

const (
	ListingsSchemaMigration = "listings.schema"
	CachedListingsMigration = "listings.cached_listings"
	SyncAttemptsMigration   = "listings.sync_attempts"
	LocalDraftsMigration    = "listings.local_drafts"
)

type CreateListingsSchema struct{}

func (m *CreateListingsSchema) UpMigration(db *sql.DB) error {
	query := `
	CREATE SCHEMA IF NOT EXISTS listings;`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create schema listings: %w", err)
	}
	return nil
}

type CreateCachedListingsTable struct{}

func (m *CreateCachedListingsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, CachedListingsMigration); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS listings.cached_listings (
		local_id VARCHAR(100) PRIMARY KEY,
		account_key VARCHAR(100) NOT NULL,
		remote_id VARCHAR(100),
		title TEXT NOT NULL DEFAULT '',
		price DECIMAL(12, 2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT '',
		listing_format VARCHAR(20) NOT NULL DEFAULT 'fixed_price',
		duration_policy VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		quantity_sold INT NOT NULL DEFAULT 0,
		view_count INT NOT NULL DEFAULT 0,
		watch_count INT NOT NULL DEFAULT 0,
		bid_count INT NOT NULL DEFAULT 0,
		time_remaining VARCHAR(50) NOT NULL DEFAULT '',
		remote_url TEXT NOT NULL DEFAULT '',
		last_synced_at TIMESTAMP WITH TIME ZONE,
		source_of_truth VARCHAR(20) NOT NULL DEFAULT 'local_only'
	);
	CREATE INDEX IF NOT EXISTS cached_listings_account_idx
		ON listings.cached_listings(account_key);
	CREATE INDEX IF NOT EXISTS cached_listings_account_source_idx
		ON listings.cached_listings(account_key, source_of_truth);`
	if err := executeAndMarkMigration(db, query, CachedListingsMigration); err != nil {
		return err
	}
	log.Printf("Migration '%s' completed successfully.", CachedListingsMigration)
	return nil
}

type CreateSyncAttemptsTable struct{}

func (m *CreateSyncAttemptsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, SyncAttemptsMigration); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS listings.sync_attempts (
		attempt_id VARCHAR(36) PRIMARY KEY,
		account_key VARCHAR(100) NOT NULL,
		scope_key VARCHAR(120) NOT NULL,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		completed_at TIMESTAMP WITH TIME ZONE,
		items_synced INT NOT NULL DEFAULT 0,
		remote_calls_made INT NOT NULL DEFAULT 0,
		outcome VARCHAR(20) NOT NULL DEFAULT 'in_progress',
		failure_reason TEXT
	);
	CREATE INDEX IF NOT EXISTS sync_attempts_limiter_idx
		ON listings.sync_attempts(account_key, scope_key, outcome, completed_at DESC);`
	if err := executeAndMarkMigration(db, query, SyncAttemptsMigration); err != nil {
		return err
	}
	log.Printf("Migration '%s' completed successfully.", SyncAttemptsMigration)
	return nil
}

type CreateLocalDraftsTable struct{}

func (m *CreateLocalDraftsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, LocalDraftsMigration); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS listings.local_drafts (
		local_id VARCHAR(100) PRIMARY KEY,
		account_key VARCHAR(100) NOT NULL,
		remote_id VARCHAR(100),
		title TEXT NOT NULL DEFAULT '',
		price DECIMAL(12, 2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT '',
		listing_format VARCHAR(20) NOT NULL DEFAULT 'fixed_price',
		duration_policy VARCHAR(50) NOT NULL DEFAULT '',
		workflow_state VARCHAR(20) NOT NULL DEFAULT 'draft',
		quantity INT NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS local_drafts_account_idx
		ON listings.local_drafts(account_key);
	CREATE INDEX IF NOT EXISTS local_drafts_remote_idx
		ON listings.local_drafts(account_key, remote_id);`
	if err := executeAndMarkMigration(db, query, LocalDraftsMigration); err != nil {
		return err
	}
	log.Printf("Migration '%s' completed successfully.", LocalDraftsMigration)
	return nil
}

func checkAndSkipMigration(db *sql.DB, migrationName string) (bool, error) {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", migrationName).Scan(&migrationExists)
	if err != nil {
		return migrationExists, fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Printf("Migration '%s' already completed. Skipping.\n", migrationName)
		return migrationExists, nil
	}
	return migrationExists, nil
}

func executeAndMarkMigration(db *sql.DB, query string, migrationName string) error {
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to execute migration '%s': %w", migrationName, err)
	}
	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", migrationName)
	if err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", migrationName, err)
	}
	return nil
}
