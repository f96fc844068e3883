// This file implements the records table accessor for the SQLite store.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// pendingBatchSize bounds how many pending records are read per query
// while iterating PendingBackfill.
const pendingBatchSize = 100

// Insert adds a new record. The base fields are write-once: a second
// insert of the same source id leaves the stored row untouched and returns
// ErrDuplicateKey.
func (s *Store) Insert(rec *types.Record) error {
	if rec == nil || rec.SourceID <= 0 || rec.Username == "" {
		return types.ErrInvalidRecord
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec(
		`INSERT INTO records (source_id, username, created_at, created_at_display, body_text, permalink_url,
		    parent_id, parent_username, parent_created_at, parent_permalink_url, parent_lookup_error, reply_latency_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_id) DO NOTHING`,
		rec.SourceID, rec.Username, rec.CreatedAt.Unix(), rec.DisplayTime(), rec.Text, rec.URL,
		nullInt64(rec.ParentID), nullString(rec.ParentUsername), nullInt64(rec.ParentCreatedAt),
		nullString(rec.ParentURL), nullString(rec.ParentLookupError), nullInt64(rec.ReplyLatencySeconds),
	)
	if err != nil {
		return fmt.Errorf("inserting record %d: %w", rec.SourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting record %d: %w", rec.SourceID, err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", rec.SourceID, types.ErrDuplicateKey)
	}
	return nil
}

// Get retrieves a record by source id. Returns ErrNotFound if absent.
func (s *Store) Get(sourceID int64) (*types.Record, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRow("SELECT "+recordColumns+" FROM records WHERE source_id = ?", sourceID)
	rec, err := hydrateRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting record %d: %w", sourceID, err)
	}
	return rec, nil
}

// MaxSourceID returns the newest stored source id for username.
func (s *Store) MaxSourceID(username string) (int64, bool, error) {
	return s.boundSourceID("MAX", username)
}

// MinSourceID returns the oldest stored source id for username.
func (s *Store) MinSourceID(username string) (int64, bool, error) {
	return s.boundSourceID("MIN", username)
}

func (s *Store) boundSourceID(agg, username string) (int64, bool, error) {
	db, err := s.conn()
	if err != nil {
		return 0, false, err
	}
	var id sql.NullInt64
	err = db.QueryRow("SELECT "+agg+"(source_id) FROM records WHERE username = ?", username).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("querying %s source id for %s: %w", agg, username, err)
	}
	return id.Int64, id.Valid, nil
}

// Count returns the number of records stored for username.
func (s *Store) Count(username string) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM records WHERE username = ?", username).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// CountPending returns the number of records awaiting parent backfill.
func (s *Store) CountPending() (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM records WHERE " + pendingPredicate).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending records: %w", err)
	}
	return n, nil
}

// PendingBackfill lazily yields records awaiting parent backfill. Records
// are read in small source id batches and every batch is fully read before
// it is yielded, so callers may call UpdateParentInfo inside the loop.
// Iteration stops at the first error, which is yielded with a zero Record.
func (s *Store) PendingBackfill() iter.Seq2[types.Record, error] {
	return s.scanBatches("WHERE source_id > ? AND " + pendingPredicate)
}

// All lazily yields every stored record in source id order.
func (s *Store) All() iter.Seq2[types.Record, error] {
	return s.scanBatches("WHERE source_id > ?")
}

// scanBatches runs keyset-paginated queries with the given WHERE clause.
// The clause must take the last seen source id as its only parameter.
func (s *Store) scanBatches(where string) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		db, err := s.conn()
		if err != nil {
			yield(types.Record{}, err)
			return
		}
		query := "SELECT " + recordColumns + " FROM records " + where +
			fmt.Sprintf(" ORDER BY source_id ASC LIMIT %d", pendingBatchSize)

		var last int64
		for {
			batch, err := queryRecords(db, query, last)
			if err != nil {
				yield(types.Record{}, err)
				return
			}
			for _, rec := range batch {
				if !yield(*rec, nil) {
					return
				}
			}
			if len(batch) < pendingBatchSize {
				return
			}
			last = batch[len(batch)-1].SourceID
		}
	}
}

func queryRecords(db *sql.DB, query string, args ...any) ([]*types.Record, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*types.Record
	for rows.Next() {
		rec, err := hydrateRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

// UpdateParentInfo records the outcome of a parent lookup. A resolved
// outcome sets the parent username, timestamp and permalink and computes
// reply_latency_seconds in the same statement; the latency is stored as-is,
// negative values included. A failed outcome sets parent_lookup_error,
// after which the record is never pending again.
func (s *Store) UpdateParentInfo(sourceID int64, outcome types.ParentOutcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	var res sql.Result
	if outcome.Resolved != nil {
		p := outcome.Resolved
		parentTS := p.CreatedAt.Unix()
		res, err = db.Exec(
			`UPDATE records SET parent_username = ?, parent_created_at = ?, parent_permalink_url = ?,
			    reply_latency_seconds = created_at - ?
			 WHERE source_id = ? AND `+pendingPredicate,
			p.Username, parentTS, p.URL, parentTS, sourceID,
		)
	} else {
		res, err = db.Exec(
			`UPDATE records SET parent_lookup_error = ? WHERE source_id = ? AND `+pendingPredicate,
			outcome.Failure, sourceID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating parent info for %d: %w", sourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating parent info for %d: %w", sourceID, err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: distinguish an unknown id from a settled record.
	var exists int
	err = db.QueryRow("SELECT 1 FROM records WHERE source_id = ?", sourceID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record %d: %w", sourceID, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking record %d: %w", sourceID, err)
	}
	return fmt.Errorf("record %d: %w", sourceID, types.ErrNotPending)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// hydrateRecord converts a records row into a *types.Record.
func hydrateRecord(row scanner) (*types.Record, error) {
	var r types.Record
	var createdAt int64
	var parentID, parentTS, latency sql.NullInt64
	var parentUser, parentURL, lookupErr sql.NullString
	if err := row.Scan(
		&r.SourceID, &r.Username, &createdAt, &r.Text, &r.URL,
		&parentID, &parentUser, &parentTS, &parentURL, &lookupErr, &latency,
	); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.ParentID = int64Ptr(parentID)
	r.ParentUsername = stringPtr(parentUser)
	r.ParentCreatedAt = int64Ptr(parentTS)
	r.ParentURL = stringPtr(parentURL)
	r.ParentLookupError = stringPtr(lookupErr)
	r.ReplyLatencySeconds = int64Ptr(latency)
	return &r, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
