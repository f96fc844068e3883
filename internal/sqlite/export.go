package sqlite

import (
	"iter"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// DefaultExportFile is the export file name under the data directory.
const DefaultExportFile = "tweets.jsonl"

// recordJSON is the export line layout.
type recordJSON struct {
	SourceID            int64   `json:"source_id"`
	Username            string  `json:"username"`
	CreatedAt           int64   `json:"created_at"`
	CreatedAtDisplay    string  `json:"created_at_display"`
	Text                string  `json:"text"`
	URL                 string  `json:"url"`
	ParentID            *int64  `json:"parent_id"`
	ParentUsername      *string `json:"parent_username"`
	ParentCreatedAt     *int64  `json:"parent_created_at"`
	ParentURL           *string `json:"parent_url"`
	ParentLookupError   *string `json:"parent_lookup_error"`
	ReplyLatencySeconds *int64  `json:"reply_latency_seconds"`
}

func toRecordJSON(r types.Record) recordJSON {
	return recordJSON{
		SourceID:            r.SourceID,
		Username:            r.Username,
		CreatedAt:           r.CreatedAt.Unix(),
		CreatedAtDisplay:    r.DisplayTime(),
		Text:                r.Text,
		URL:                 r.URL,
		ParentID:            r.ParentID,
		ParentUsername:      r.ParentUsername,
		ParentCreatedAt:     r.ParentCreatedAt,
		ParentURL:           r.ParentURL,
		ParentLookupError:   r.ParentLookupError,
		ReplyLatencySeconds: r.ReplyLatencySeconds,
	}
}

// Export writes every stored record to path as JSON Lines, ordered by
// source id, and returns the number of lines written.
func (s *Store) Export(path string) (int, error) {
	if _, err := s.conn(); err != nil {
		return 0, err
	}
	next, stop := iter.Pull2(s.All())
	defer stop()
	return writeJSONL(path, func() (any, bool, error) {
		rec, err, ok := next()
		if !ok {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return toRecordJSON(rec), true, nil
	})
}
