package timeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

func TestRun_PrimeSingleRecord(t *testing.T) {
	store := setupStore(t)
	src := newFakeSource(100)

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 1, false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 0, res.BudgetLeft)
	assert.Equal(t, int64(100), res.MinID)
	assert.Equal(t, int64(100), res.MaxID)
	assert.Equal(t, 1, res.Calls, "zero budget after prime issues no further call")

	n, err := store.Count("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []types.Cursor{types.NoCursor()}, src.calls)
	assert.Equal(t, []int{1}, src.counts)
}

func TestRun_WalkPastStopsAfterThreeEmptyPages(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 100)
	src := newFakeSource(90, 95, 100)

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 500, false)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 498, res.BudgetLeft)
	assert.Equal(t, int64(90), res.MinID)
	assert.Equal(t, int64(100), res.MaxID)

	want := []types.Cursor{
		types.Before(100), types.Before(90), types.Before(90), types.Before(90),
		types.After(100), types.After(100), types.After(100),
	}
	assert.Equal(t, want, src.calls)

	for _, id := range []int64{90, 95, 100} {
		_, err := store.Get(id)
		assert.NoError(t, err, "record %d", id)
	}
}

func TestRun_WalkFutureCatchesUp(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 100)
	src := newFakeSource(100, 110, 120)

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 500, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, int64(120), res.MaxID)
	assert.Equal(t, types.After(120), src.calls[len(src.calls)-1])
}

func TestRun_EmptyTimeline(t *testing.T) {
	store := setupStore(t)
	src := newFakeSource()

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 500, false)
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.Equal(t, 1, res.Calls)
}

func TestRun_ZeroBudgetWithStoredRecords(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 50)
	src := newFakeSource(10, 50, 90)

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 0, false)
	require.NoError(t, err)
	assert.Zero(t, res.Calls)
	assert.Zero(t, res.Fetched)
}

func TestRun_ZeroBudgetEmptyStoreSkipsPrime(t *testing.T) {
	store := setupStore(t)
	src := newFakeSource(10, 20)

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 0, false)
	require.NoError(t, err)
	assert.Zero(t, res.Calls)
	assert.Zero(t, res.BudgetLeft)
	assert.Empty(t, src.calls)
}

func TestRun_ForcedPrimeOverStoredHistory(t *testing.T) {
	store := setupStore(t)
	ids := make([]int64, 0, 1000)
	for i := int64(1); i <= 1000; i++ {
		ids = append(ids, i)
	}
	seed(t, store, ids...)
	src := newFakeSource(ids...)

	const budget = 10
	res, err := NewWalker(src, store).Run(context.Background(), "alice", budget, true)
	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
	assert.Equal(t, budget, res.BudgetLeft)

	var past, future int
	for _, c := range src.calls {
		switch c.Mode {
		case types.CursorBefore:
			past++
		case types.CursorAfter:
			future++
		}
	}
	pages := (budget + DefaultPageSize - 1) / DefaultPageSize
	assert.LessOrEqual(t, past, DefaultMaxEmptyPages+pages, "pages of stored records end the walk")
	assert.LessOrEqual(t, future, DefaultMaxEmptyPages+pages)
	assert.Equal(t, 1+past+future, res.Calls)
}

func TestRun_StalePagesInterleavedWithNewRecords(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 100, 90, 80)
	src := newFakeSource(70, 80, 90, 100)

	res, err := NewWalker(src, store, WithPageSize(1)).Run(context.Background(), "alice", 5, true)
	require.NoError(t, err)

	// Two stored pages (90, 80) then a new one (70) resets the strikes.
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, int64(70), res.MinID)
	_, err = store.Get(70)
	assert.NoError(t, err)
}

func TestRun_BudgetConservationAndPageSize(t *testing.T) {
	store := setupStore(t)
	var ids []int64
	for i := int64(1); i <= 1000; i++ {
		ids = append(ids, i)
	}
	seed(t, store, 1000)
	src := newFakeSource(ids...)

	const budget = 450
	res, err := NewWalker(src, store).Run(context.Background(), "alice", budget, false)
	require.NoError(t, err)

	assert.Equal(t, budget-res.Fetched, res.BudgetLeft)
	assert.Equal(t, budget, res.Fetched)
	assert.Equal(t, []int{200, 200, 50}, src.counts)
	// ceil(450/200) pages, never more than maxEmptyPages extra.
	assert.LessOrEqual(t, res.Calls, DefaultMaxEmptyPages+3)
}

func TestRun_CursorsAreMonotonic(t *testing.T) {
	store := setupStore(t)
	var ids []int64
	for i := int64(1); i <= 95; i++ {
		ids = append(ids, i*10)
	}
	seed(t, store, 500)
	src := newFakeSource(ids...)

	_, err := NewWalker(src, store, WithPageSize(7)).Run(context.Background(), "alice", 1000, false)
	require.NoError(t, err)

	var lastBefore, lastAfter int64
	for _, c := range src.calls {
		switch c.Mode {
		case types.CursorBefore:
			if lastBefore != 0 {
				assert.LessOrEqual(t, c.ID, lastBefore)
			}
			lastBefore = c.ID
		case types.CursorAfter:
			assert.GreaterOrEqual(t, c.ID, lastAfter)
			lastAfter = c.ID
		}
	}
	n, err := store.Count("alice")
	require.NoError(t, err)
	assert.Equal(t, 95, n)
}

func TestRun_DuplicatesDoNotConsumeBudget(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 30, 20, 10)
	src := newFakeSource(10, 20, 30)

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 5, true)
	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
	assert.Equal(t, 5, res.BudgetLeft)
	assert.Equal(t, types.NoCursor(), src.calls[0], "forced prime starts from the newest post")
	assert.Equal(t, int64(10), res.MinID)
}

func TestRun_RepostOnlyPagesMoveCursor(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 100)
	src := newFakeSource(50, 60, 100)
	src.posts[1].Repost = true // 60
	src.posts[0].Repost = true // 50

	res, err := NewWalker(src, store, WithPageSize(1)).Run(context.Background(), "alice", 10, false)
	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
	assert.Equal(t, int64(50), res.MinID)
	assert.Equal(t, types.Before(60), src.calls[1])
}

func TestRun_FetchErrorAborts(t *testing.T) {
	store := setupStore(t)
	seed(t, store, 100)
	src := newFakeSource(100)
	src.listErr = &types.UpstreamError{Op: "statuses/user_timeline", StatusCode: 500, Err: errors.New("boom")}

	res, err := NewWalker(src, store).Run(context.Background(), "alice", 10, false)
	var ue *types.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, res.Calls)
}

func TestRun_TerminationBound(t *testing.T) {
	tests := []struct {
		name     string
		budget   int
		pageSize int
		posts    int
	}{
		{"budget larger than timeline", 1000, 200, 150},
		{"budget smaller than timeline", 300, 200, 2000},
		{"tiny pages", 25, 4, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupStore(t)
			ids := make([]int64, 0, tt.posts)
			for i := 1; i <= tt.posts; i++ {
				ids = append(ids, int64(i))
			}
			seed(t, store, int64(tt.posts))
			src := newFakeSource(ids...)

			res, err := NewWalker(src, store, WithPageSize(tt.pageSize)).Run(context.Background(), "alice", tt.budget, false)
			require.NoError(t, err)

			pages := (tt.budget + tt.pageSize - 1) / tt.pageSize
			bound := 2 * (DefaultMaxEmptyPages + pages)
			assert.LessOrEqual(t, res.Calls, bound)
			assert.Equal(t, tt.budget-res.Fetched, res.BudgetLeft)
		})
	}
}
