package chat

import "time"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusLoading Status = "loading"
)

const SeedGreeting = "Hi! I'm Viola's virtual assistant. Ask about her experience, projects, or skills!"

// Message is one entry of the chat log. Messages are never modified after
// they are appended.
type Message struct {
	ID        int       `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	VisitorID   string         `json:"visitor_id"`
	Messages    []Message      `json:"messages"`
	IsOpen      bool           `json:"is_open"`
	IsMinimized bool           `json:"is_minimized"`
	UnreadCount int            `json:"unread_count"`
	Status      Status         `json:"status"`
	Suggestions []string       `json:"suggestions"`
	Proactive   ProactiveState `json:"proactive"`
}

// HistoryRecord is the SQL row behind Repo: one keyed blob per visitor, the
// same shape the browser kept in local storage.
type HistoryRecord struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (HistoryRecord) TableName() string { return "chat_histories" }

func seedLog(now time.Time) []Message {
	return []Message{{
		ID:        1,
		Sender:    SenderAssistant,
		Text:      SeedGreeting,
		Timestamp: now.UTC(),
	}}
}
