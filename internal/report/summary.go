// Package report computes reply statistics over a time window and delivers
// them as a chat message.
package report

import (
	"math"
	"strconv"
	"time"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// NotAvailable is rendered for statistics without data.
const NotAvailable = "n/a"

// Summary is the computed report for one window.
type Summary struct {
	Username string
	Since    string    // Window as the user wrote it.
	Start    time.Time // Resolved window start.
	Posts    int
	Replies  int

	// Latency statistics in seconds; nil when no latency is recorded.
	Min    *int64
	Max    *int64
	Avg    *float64 // Rounded to two decimals.
	Median *float64
}

// Summarize computes a Summary from raw window figures. Latencies must be
// sorted ascending, as Store.Stats returns them.
func Summarize(stats types.WindowStats, since string) Summary {
	s := Summary{
		Username: stats.Username,
		Since:    since,
		Start:    stats.Since,
		Posts:    stats.Posts,
		Replies:  stats.Replies,
	}
	n := len(stats.Latencies)
	if n == 0 {
		return s
	}

	lo, hi := stats.Latencies[0], stats.Latencies[n-1]
	s.Min, s.Max = &lo, &hi

	var sum float64
	for _, v := range stats.Latencies {
		sum += float64(v)
	}
	avg := math.Round(sum/float64(n)*100) / 100
	s.Avg = &avg

	var median float64
	if n%2 == 1 {
		median = float64(stats.Latencies[n/2])
	} else {
		median = float64(stats.Latencies[n/2-1]+stats.Latencies[n/2]) / 2
	}
	s.Median = &median
	return s
}

func formatInt(v *int64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
