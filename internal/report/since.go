package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DefaultSince is the report window when none is configured.
const DefaultSince = "1 day ago"

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseSince resolves a window start relative to now. It accepts a Go
// duration ("24h", "90m") meaning that long before now, or natural
// language understood by olebedev/when ("1 day ago", "3 hours ago").
func ParseSince(since string, now time.Time) (time.Time, error) {
	since = strings.TrimSpace(since)
	if since == "" {
		return time.Time{}, fmt.Errorf("empty window")
	}
	if d, err := time.ParseDuration(since); err == nil {
		if d < 0 {
			d = -d
		}
		return now.Add(-d), nil
	}

	r, err := parser.Parse(since, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing window %q: %w", since, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unable to parse window %q", since)
	}
	return r.Time, nil
}
