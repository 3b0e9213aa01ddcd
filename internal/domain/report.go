package domain

import "time"

// ReportKind names a pipeline and doubles as the file-name suffix of its post.
type ReportKind string

const (
	KindNews   ReportKind = "news"
	KindMarket ReportKind = "quant"
	KindReport ReportKind = "report"
)

// Report is a generated post ready for publishing.
type Report struct {
	Kind        ReportKind
	Date        time.Time
	Title       string
	Description string
	Tags        []string
	Body        string
	// AudioFile is the narration file name inside the audio directory; empty when no audio was produced.
	AudioFile   string
	AudioLabel  string
	Path        string
}

// PostName is the post file name: <yyyy-mm-dd>-<kind>.md.
func (r Report) PostName() string {
	return r.Date.Format("2006-01-02") + "-" + string(r.Kind) + ".md"
}

// AudioName is the narration file name: <yyyymmdd>_<kind>.mp3.
func (r Report) AudioName() string {
	return r.Date.Format("20060102") + "_" + string(r.Kind) + ".mp3"
}

// HasAudio reports whether a narration file accompanies the post.
func (r Report) HasAudio() bool {
	return r.AudioFile != ""
}

// Message is a role-tagged chat message sent to a language model.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
