// Package sqlite implements the SQLite record store for tweetsync.
package sqlite

// Schema DDL. Every statement is idempotent so attaching to an existing
// database never drops data.
const (
	createRecords = `CREATE TABLE IF NOT EXISTS records (
    source_id INTEGER PRIMARY KEY,
    username TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    created_at_display TEXT NOT NULL,
    body_text TEXT NOT NULL,
    permalink_url TEXT NOT NULL,
    parent_id INTEGER,
    parent_username TEXT,
    parent_created_at INTEGER,
    parent_permalink_url TEXT,
    parent_lookup_error TEXT,
    reply_latency_seconds INTEGER
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    fetched INTEGER NOT NULL DEFAULT 0,
    backfilled INTEGER NOT NULL DEFAULT 0,
    error TEXT
);`
)

// Index DDL for the cursor, backfill and report queries.
const (
	idxRecordsUserSource = `CREATE INDEX IF NOT EXISTS idx_records_user_source ON records(username, source_id);`
	idxRecordsCreated    = `CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);`
	idxRecordsPending    = `CREATE INDEX IF NOT EXISTS idx_records_pending ON records(source_id)
    WHERE parent_id IS NOT NULL AND parent_lookup_error IS NULL AND parent_created_at IS NULL;`
	idxRunsStarted = `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createRecords,
	createSettings,
	createRuns,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRecordsUserSource,
	idxRecordsCreated,
	idxRecordsPending,
	idxRunsStarted,
}

// pendingPredicate selects records awaiting parent backfill.
const pendingPredicate = `parent_id IS NOT NULL AND parent_lookup_error IS NULL AND parent_created_at IS NULL`

// recordColumns is the column list shared by every records SELECT.
const recordColumns = `source_id, username, created_at, body_text, permalink_url,
    parent_id, parent_username, parent_created_at, parent_permalink_url,
    parent_lookup_error, reply_latency_seconds`
