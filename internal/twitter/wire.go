package twitter

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// user is the subset of a v1.1 user object we read.
type user struct {
	ScreenName string `json:"screen_name"`
}

// status is the subset of a v1.1 status object we read.
type status struct {
	ID                  int64     `json:"id"`
	Text                string    `json:"text"`
	FullText            string    `json:"full_text"`
	CreatedAt           string    `json:"created_at"`
	User                user      `json:"user"`
	InReplyToStatusID   *int64    `json:"in_reply_to_status_id"`
	InReplyToScreenName *string   `json:"in_reply_to_screen_name"`
	RetweetedStatus     *struct{} `json:"retweeted_status"`
}

func (s *status) rawPost() (types.RawPost, error) {
	created, err := time.Parse(time.RubyDate, s.CreatedAt)
	if err != nil {
		return types.RawPost{}, fmt.Errorf("status %d: parsing created_at %q: %w", s.ID, s.CreatedAt, err)
	}
	text := s.FullText
	if text == "" {
		text = s.Text
	}
	p := types.RawPost{
		ID:          s.ID,
		Username:    s.User.ScreenName,
		Text:        text,
		CreatedAt:   created.UTC(),
		InReplyToID: s.InReplyToStatusID,
		Repost:      s.RetweetedStatus != nil,
	}
	if s.InReplyToScreenName != nil {
		p.InReplyToUsername = *s.InReplyToScreenName
	}
	return p, nil
}
