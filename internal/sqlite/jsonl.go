// This file provides the atomic JSON Lines writer used by Export.
package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeJSONL encodes every value produced by next as one line of path.
// next returns false when exhausted. The file is written to a temp file in
// the same directory, synced and renamed over path, so readers see either
// the previous export or the complete new one.
func writeJSONL(path string, next func() (any, bool, error)) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (int, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	n := 0
	for {
		v, ok, err := next()
		if err != nil {
			return fail(err)
		}
		if !ok {
			break
		}
		// Encode appends the newline.
		if err := enc.Encode(v); err != nil {
			return fail(fmt.Errorf("writing line %d: %w", n+1, err))
		}
		n++
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}
