package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		latencies []int64
		min, max  string
		avg       string
		median    string
	}{
		{"no latencies", nil, "n/a", "n/a", "n/a", "n/a"},
		{"single", []int64{42}, "42", "42", "42", "42"},
		{"odd count", []int64{10, 20, 60}, "10", "60", "30", "20"},
		{"even count averages middle pair", []int64{10, 20, 30, 45}, "10", "45", "26.25", "25"},
		{"avg rounds to two decimals", []int64{1, 1, 2}, "1", "2", "1.33", "1"},
		{"negative latency kept", []int64{-30, 10}, "-30", "10", "-10", "-10"},
		{"half median", []int64{1, 2}, "1", "2", "1.5", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(types.WindowStats{Username: "alice", Posts: 5, Replies: 3, Latencies: tt.latencies}, "1 day ago")
			assert.Equal(t, tt.min, formatInt(s.Min))
			assert.Equal(t, tt.max, formatInt(s.Max))
			assert.Equal(t, tt.avg, formatFloat(s.Avg))
			assert.Equal(t, tt.median, formatFloat(s.Median))
		})
	}
}

func TestRender(t *testing.T) {
	s := Summarize(types.WindowStats{Username: "alice", Posts: 12, Replies: 4, Latencies: []int64{30, 90}}, "1 day ago")
	want := "Tweet reply for user: alice\n" +
		"Since: 1 day ago\n" +
		"Num Tweets: 12\n" +
		"Num Replies: 4\n" +
		"Min Reply time: 30\n" +
		"Max reply time: 90\n" +
		"Avg reply time: 60\n" +
		"Median reply time: 60\n"
	assert.Equal(t, want, Render(s))
}

func TestRender_NoReplies(t *testing.T) {
	msg := Render(Summarize(types.WindowStats{Username: "alice"}, "24h"))
	assert.Contains(t, msg, "Num Replies: 0\n")
	assert.Contains(t, msg, "Median reply time: n/a\n")
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"24h", now.Add(-24 * time.Hour)},
		{"90m", now.Add(-90 * time.Minute)},
		{"-2h", now.Add(-2 * time.Hour)},
		{"1 day ago", now.Add(-24 * time.Hour)},
		{"3 hours ago", now.Add(-3 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSince(tt.in, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseSince_Invalid(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "   ", "zzz qqq"} {
		_, err := ParseSince(in, now)
		assert.Error(t, err, "input %q", in)
	}
}
