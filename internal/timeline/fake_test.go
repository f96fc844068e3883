package timeline

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tweetsync/internal/sqlite"
	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// fakeSource serves a fixed timeline honoring cursor semantics, plus
// scripted parent lookups.
type fakeSource struct {
	mu       sync.Mutex
	posts    []types.RawPost // any order
	parents  map[int64]types.RawPost
	failures map[int64]error
	listErr  error
	calls    []types.Cursor
	counts   []int
	lookups  []int64
	quota    int
}

func newFakeSource(ids ...int64) *fakeSource {
	f := &fakeSource{
		parents:  map[int64]types.RawPost{},
		failures: map[int64]error{},
		quota:    900,
	}
	for _, id := range ids {
		f.posts = append(f.posts, rawPost(id))
	}
	return f
}

func rawPost(id int64) types.RawPost {
	return types.RawPost{
		ID:        id,
		Username:  "alice",
		Text:      "post",
		CreatedAt: time.Unix(1_700_000_000+id, 0).UTC(),
	}
}

func (f *fakeSource) ListTimeline(_ context.Context, _ string, count int, cursor types.Cursor) ([]types.RawPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cursor)
	f.counts = append(f.counts, count)
	f.quota--
	if f.listErr != nil {
		return nil, f.listErr
	}

	var match []types.RawPost
	for _, p := range f.posts {
		switch cursor.Mode {
		case types.CursorBefore:
			if p.ID >= cursor.ID {
				continue
			}
		case types.CursorAfter:
			if p.ID <= cursor.ID {
				continue
			}
		}
		match = append(match, p)
	}
	// Pages run contiguously away from the cursor: the newest posts below a
	// Before cursor, the oldest posts above an After cursor.
	slices.SortFunc(match, func(a, b types.RawPost) int { return cmp.Compare(b.ID, a.ID) })
	if len(match) > count {
		if cursor.Mode == types.CursorAfter {
			match = match[len(match)-count:]
		} else {
			match = match[:count]
		}
	}
	return match, nil
}

func (f *fakeSource) GetPost(_ context.Context, id int64) (types.RawPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, id)
	f.quota--
	if err, ok := f.failures[id]; ok {
		return types.RawPost{}, err
	}
	if p, ok := f.parents[id]; ok {
		return p, nil
	}
	return types.RawPost{}, &types.LookupError{ID: id, Kind: types.LookupNotFound, Reason: "Twitter API returned a 404"}
}

func (f *fakeSource) VerifyCredentials(context.Context) (string, error) { return "alice", nil }

func (f *fakeSource) RateLimitRemaining() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quota, true
}

// setupStore attaches a SQLite store in a temp dir.
func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := sqlite.NewStore()
	require.NoError(t, s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { s.Detach() })
	return s
}

func seed(t *testing.T, s *sqlite.Store, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		rec := normalize("alice", rawPost(id))
		require.NoError(t, s.Insert(&rec))
	}
}
