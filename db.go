package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type DbResultError struct {
	status  int
	message string
	err     error
}

type TagDatabase struct {
	db *sql.DB
}

// openTagDatabase opens (or creates) the SQLite file and ensures the tags
// table exists. Any failure here is fatal at startup; the operator recovers
// by deleting and recreating the database file.
func openTagDatabase(path string) (*TagDatabase, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			tags TEXT,
			remark TEXT,
			updated DATETIME
		)`)
	if err != nil {
		return nil, err
	}
	return &TagDatabase{db: db}, nil
}

func (t *TagDatabase) close() error {
	return t.db.Close()
}

func (t *TagDatabase) loadRecords() ([]TagRecordModel, *DbResultError) {
	rows, err := t.db.Query("SELECT id, path, tags, remark, updated FROM tags")
	if err != nil {
		return nil, &DbResultError{status: 500, message: "Failed to load tag records", err: err}
	}
	defer rows.Close()
	var records []TagRecordModel
	for rows.Next() {
		var record TagRecordModel
		err = rows.Scan(&record.id, &record.path, &record.tags, &record.remark, &record.updated)
		if err != nil {
			return nil, &DbResultError{status: 500, message: "Failed to scan tag record", err: err}
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, &DbResultError{status: 500, message: "Failed to load tag records", err: err}
	}
	return records, nil
}

// upsertRecord writes one record in a single statement; a resubmission for
// the same id replaces the stored tags, remark and timestamp.
func (t *TagDatabase) upsertRecord(record TagRecordModel) *DbResultError {
	_, err := t.db.Exec(`
		INSERT INTO tags (id, path, tags, remark, updated)
			VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			tags=excluded.tags,
			remark=excluded.remark,
			updated=excluded.updated`,
		record.id, record.path, record.tags, record.remark, record.updated)
	if err != nil {
		return &DbResultError{status: 500, message: "Failed to store tag record", err: err}
	}
	return nil
}
