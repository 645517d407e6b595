package main

import (
	"database/sql"
	"testing"
)

func TestUpsertRecordReplaces(t *testing.T) {
	db, _ := testDatabase(t)

	record := TagRecordModel{
		id:      pathId("a.jpg"),
		path:    "a.jpg",
		tags:    sql.NullString{String: "White", Valid: true},
		remark:  sql.NullString{String: "", Valid: true},
		updated: sql.NullString{String: "2026-08-23T10:00:00", Valid: true},
	}
	if dbErr := db.upsertRecord(record); dbErr != nil {
		t.Fatalf("upsertRecord: %s (%v)", dbErr.message, dbErr.err)
	}
	record.tags.String = "Red"
	record.updated.String = "2026-08-23T10:01:00"
	if dbErr := db.upsertRecord(record); dbErr != nil {
		t.Fatalf("upsertRecord: %s (%v)", dbErr.message, dbErr.err)
	}

	records, dbErr := db.loadRecords()
	if dbErr != nil {
		t.Fatalf("loadRecords: %s (%v)", dbErr.message, dbErr.err)
	}
	if len(records) != 1 {
		t.Fatalf("loadRecords returned %d records, want 1", len(records))
	}
	if records[0].tags.String != "Red" {
		t.Errorf("tags = %q, want Red", records[0].tags.String)
	}
	if records[0].updated.String != "2026-08-23T10:01:00" {
		t.Errorf("updated = %q, want the replacing timestamp", records[0].updated.String)
	}
}

func TestOpenTagDatabaseCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	db, err := openTagDatabase(dir + "/nested/tags.db")
	if err != nil {
		t.Fatalf("openTagDatabase: %v", err)
	}
	defer db.close()

	if dbErr := db.upsertRecord(TagRecordModel{id: "x", path: "x.jpg"}); dbErr != nil {
		t.Errorf("upsertRecord: %s (%v)", dbErr.message, dbErr.err)
	}
}
