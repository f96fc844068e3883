package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// Stats gathers the raw report figures for username over records created
// at or after since. Latencies are those of records whose latency is set,
// in ascending order.
func (s *Store) Stats(username string, since time.Time) (types.WindowStats, error) {
	db, err := s.conn()
	if err != nil {
		return types.WindowStats{}, err
	}
	stats := types.WindowStats{Username: username, Since: since}
	cutoff := since.Unix()

	err = db.QueryRow(
		`SELECT COUNT(*), COUNT(parent_id) FROM records WHERE username = ? AND created_at >= ?`,
		username, cutoff,
	).Scan(&stats.Posts, &stats.Replies)
	if err != nil {
		return types.WindowStats{}, fmt.Errorf("counting window records: %w", err)
	}

	rows, err := db.Query(
		`SELECT reply_latency_seconds FROM records
		 WHERE username = ? AND created_at >= ? AND reply_latency_seconds IS NOT NULL
		 ORDER BY reply_latency_seconds ASC`,
		username, cutoff,
	)
	if err != nil {
		return types.WindowStats{}, fmt.Errorf("querying latencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return types.WindowStats{}, fmt.Errorf("scanning latency: %w", err)
		}
		stats.Latencies = append(stats.Latencies, v)
	}
	if err := rows.Err(); err != nil {
		return types.WindowStats{}, fmt.Errorf("iterating latencies: %w", err)
	}
	return stats, nil
}
