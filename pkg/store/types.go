package store

import "time"

// Memory is one remembered fact. Score is the persistent base importance in
// [0, 1]; live ranking happens in the scoring package at read time.
type Memory struct {
	ID           int64          `json:"id"`
	Project      string         `json:"project"`
	SessionID    string         `json:"session_id"`
	Category     string         `json:"category"`
	Content      string         `json:"content"`
	Keywords     string         `json:"keywords"`
	Score        float64        `json:"score"`
	CreatedAt    time.Time      `json:"created_at"`
	LastAccessed time.Time      `json:"last_accessed"`
	AccessCount  int            `json:"access_count"`
	SourceHash   string         `json:"source_hash,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Checkpoint records how far extraction has read one transcript file within
// a session. Rows are append-only; the row with the greatest id wins.
type Checkpoint struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	TranscriptPath string    `json:"transcript_path"`
	LastLine       int       `json:"last_line"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session tracks one conversation's lifetime and bookkeeping counters.
type Session struct {
	SessionID       string     `json:"session_id"`
	Project         string     `json:"project"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	MemoriesCreated int        `json:"memories_created"`
	Compactions     int        `json:"compactions"`
}

// CategoryStats aggregates one category for the dashboard.
type CategoryStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// DayCount is one day of the creation timeline.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Stats is the dashboard aggregate view of one store.
type Stats struct {
	TotalMemories  int                      `json:"total_memories"`
	Projects       int                      `json:"projects"`
	Sessions       int                      `json:"sessions"`
	AverageScore   float64                  `json:"average_score"`
	Categories     map[string]CategoryStats `json:"categories"`
	ScoreHistogram []int                    `json:"score_histogram"`
	Timeline       []DayCount               `json:"timeline"`
}

// ListOptions filters and pages the dashboard listing.
type ListOptions struct {
	Project  string
	Category string
	Search   string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

// ListResult is one page of memories plus the unpaged total.
type ListResult struct {
	Memories []Memory `json:"memories"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
}
