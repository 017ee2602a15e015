package domain

import "time"

// Platform is the social network a post is planned for
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// Platforms lists the supported platforms in display order
var Platforms = []Platform{PlatformInstagram, PlatformTikTok}

// CopyMode steers both generation and scoring
type CopyMode string

const (
	CopyModeSales        CopyMode = "Venda"
	CopyModeStorytelling CopyMode = "Storytelling"
	CopyModeEducational  CopyMode = "Educacional"
)

// Status of a planner event
type Status string

const (
	StatusPlanned Status = "planned"
	StatusDone    Status = "done"
)

// ScoreResult is the numeric evaluation of a caption
type ScoreResult struct {
	Clarity     float64 `json:"clarity"`
	Conversion  float64 `json:"conversion"`
	Engagement  float64 `json:"engagement"`
	Emotion     float64 `json:"emotion"`
	Credibility float64 `json:"credibility"`
	PlatformFit float64 `json:"platform_fit"`
	Final       float64 `json:"final"`
}

// Variant is one candidate caption produced by a generation step
type Variant struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Caption     string       `json:"caption"`
	Hashtags    []string     `json:"hashtags"`
	CTA         string       `json:"cta,omitempty"`
	Angle       string       `json:"angle,omitempty"`
	Metrics     *ScoreResult `json:"metrics,omitempty"`
	Recommended bool         `json:"recommended"`
	RepeatOf    string       `json:"repeat_of,omitempty"`
}

// PlannerEvent is a caption scheduled for a specific day and time
type PlannerEvent struct {
	ID          string     `json:"id"`
	Day         string     `json:"day"`
	Time        string     `json:"time"`
	Platform    Platform   `json:"platform"`
	Title       string     `json:"title"`
	Caption     string     `json:"caption"`
	Hashtags    []string   `json:"hashtags"`
	Score       *float64   `json:"score"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ScheduleKey returns the sortable (day, time) key
func (e PlannerEvent) ScheduleKey() string {
	return e.Day + " " + e.Time
}

const (
	// DateLayout is the ISO 8601 calendar date format used for Day
	DateLayout = "2006-01-02"

	// TimeLayout is the 24-hour clock format used for Time
	TimeLayout = "15:04"
)
