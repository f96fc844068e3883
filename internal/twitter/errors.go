package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// v1.1 API error codes we act on.
const (
	codeUserSuspended   = 63
	codeRateLimited     = 88
	codeBlockedByAuthor = 136
	codeNoStatusFound   = 144
	codeNotAuthorized   = 179
)

// Stable failure reasons persisted as parent_lookup_error.
const (
	ReasonSuspended       = "User has been suspended"
	ReasonNoStatus        = "No status found with that ID"
	ReasonNotFound        = "Twitter API returned a 404"
	ReasonAccessBlocked   = "You are not authorized to see this status"
	ReasonBlockedByAuthor = "You have been blocked from the author of this tweet"
)

// apiError is a non-200 answer carrying the v1.1 error envelope.
type apiError struct {
	Op         string
	StatusCode int
	Codes      []int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *apiError) hasCode(code int) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func (e *apiError) rateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.hasCode(codeRateLimited)
}

func (e *apiError) upstream() *types.UpstreamError {
	return &types.UpstreamError{Op: e.Op, StatusCode: e.StatusCode, Err: errors.New(e.message())}
}

func (e *apiError) message() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

type errorEnvelope struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Error string `json:"error"`
}

// parseAPIError decodes the error envelope. Bodies that are not JSON keep
// only the status code.
func parseAPIError(op string, statusCode int, body []byte) *apiError {
	ae := &apiError{Op: op, StatusCode: statusCode}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ae
	}
	var msgs []string
	for _, e := range env.Errors {
		ae.Codes = append(ae.Codes, e.Code)
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	if env.Error != "" {
		msgs = append(msgs, env.Error)
	}
	ae.Message = strings.Join(msgs, "; ")
	return ae
}

// classifyLookup maps a refused statuses/show call to a *types.LookupError.
// API codes take precedence over the HTTP status; a 404 without a known
// code is still NotFound. Anything else is LookupUnknown, which callers
// must not persist.
func classifyLookup(id int64, ae *apiError) *types.LookupError {
	le := &types.LookupError{ID: id, Raw: ae.Error()}
	switch {
	case ae.hasCode(codeUserSuspended):
		le.Kind, le.Reason = types.LookupSuspended, ReasonSuspended
	case ae.hasCode(codeNoStatusFound):
		le.Kind, le.Reason = types.LookupNotFound, ReasonNoStatus
	case ae.hasCode(codeNotAuthorized):
		le.Kind, le.Reason = types.LookupAccessBlocked, ReasonAccessBlocked
	case ae.hasCode(codeBlockedByAuthor):
		le.Kind, le.Reason = types.LookupBlockedByAuthor, ReasonBlockedByAuthor
	case ae.StatusCode == http.StatusNotFound:
		le.Kind, le.Reason = types.LookupNotFound, ReasonNotFound
	default:
		le.Kind, le.Reason = types.LookupUnknown, ae.message()
	}
	return le
}

// parseReset reads x-rate-limit-reset, epoch seconds.
func parseReset(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
