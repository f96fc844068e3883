package report

import (
	"strings"
	"text/template"
)

var messageTemplate = template.Must(template.New("report").Parse(
	`Tweet reply for user: {{.Username}}
Since: {{.Since}}
Num Tweets: {{.Posts}}
Num Replies: {{.Replies}}
Min Reply time: {{.Min}}
Max reply time: {{.Max}}
Avg reply time: {{.Avg}}
Median reply time: {{.Median}}
`))

type messageData struct {
	Username string
	Since    string
	Posts    int
	Replies  int
	Min      string
	Max      string
	Avg      string
	Median   string
}

// Render formats s as the chat message.
func Render(s Summary) string {
	var b strings.Builder
	// Execute cannot fail: the template only reads string and int fields.
	_ = messageTemplate.Execute(&b, messageData{
		Username: s.Username,
		Since:    s.Since,
		Posts:    s.Posts,
		Replies:  s.Replies,
		Min:      formatInt(s.Min),
		Max:      formatInt(s.Max),
		Avg:      formatFloat(s.Avg),
		Median:   formatFloat(s.Median),
	})
	return b.String()
}
