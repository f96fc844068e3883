package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestRecordPendingBackfill(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{
			name: "not a reply is never pending",
			rec:  Record{SourceID: 1},
			want: false,
		},
		{
			name: "not a reply with stray error fields is never pending",
			rec:  Record{SourceID: 1, ParentLookupError: ptr("x"), ParentUsername: ptr("bob")},
			want: false,
		},
		{
			name: "reply without parent data is pending",
			rec:  Record{SourceID: 2, ParentID: ptr(int64(555)), ParentUsername: ptr("bob")},
			want: true,
		},
		{
			name: "reply with resolved parent is not pending",
			rec:  Record{SourceID: 3, ParentID: ptr(int64(555)), ParentCreatedAt: ptr(int64(100))},
			want: false,
		},
		{
			name: "reply with lookup error is terminal",
			rec:  Record{SourceID: 4, ParentID: ptr(int64(555)), ParentLookupError: ptr("Twitter API returned a 404")},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.PendingBackfill())
		})
	}
}

func TestRecordDisplayTime(t *testing.T) {
	r := Record{CreatedAt: time.Date(2020, 5, 17, 8, 9, 10, 0, time.FixedZone("x", 3600))}
	assert.Equal(t, "2020-05-17 07:09:10", r.DisplayTime())
}

func TestPermalink(t *testing.T) {
	assert.Equal(t, "https://twitter.com/alice/status/1234", Permalink("alice", 1234))
}

func TestParentOutcomeValidate(t *testing.T) {
	assert.NoError(t, Resolved(ParentInfo{Username: "bob"}).Validate())
	assert.NoError(t, Failed("No status found with that ID").Validate())
	assert.ErrorIs(t, ParentOutcome{}.Validate(), ErrInvalidOutcome)
	both := ParentOutcome{Resolved: &ParentInfo{}, Failure: "x"}
	assert.ErrorIs(t, both.Validate(), ErrInvalidOutcome)
}

func TestCursorString(t *testing.T) {
	assert.Equal(t, "none", NoCursor().String())
	assert.Equal(t, "before(100)", Before(100).String())
	assert.Equal(t, "after(7)", After(7).String())
	assert.Equal(t, CursorNone, Cursor{}.Mode)
}

func TestLookupErrorTerminal(t *testing.T) {
	assert.False(t, (&LookupError{Kind: LookupUnknown}).Terminal())
	for _, k := range []LookupKind{LookupSuspended, LookupNotFound, LookupAccessBlocked, LookupBlockedByAuthor} {
		assert.True(t, (&LookupError{Kind: k}).Terminal(), k.String())
	}
}
