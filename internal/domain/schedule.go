package domain

import "time"

// ScheduledItem is the per-node CPM result.
type ScheduledItem struct {
	ItemID     string         `json:"itemId"`
	ItemType   ItemType       `json:"itemType"`
	Name       string         `json:"name"`
	EarlyStart time.Time      `json:"earlyStart"`
	EarlyEnd   time.Time      `json:"earlyEnd"`
	LateStart  time.Time      `json:"lateStart"`
	LateEnd    time.Time      `json:"lateEnd"`
	SlackDays  float64        `json:"slackDays"`
	IsCritical bool           `json:"isCritical"`
}

// ProjectSchedule is the pure value produced by a CPM run. It is never
// persisted by the core.
type ProjectSchedule struct {
	ProjectID         string          `json:"projectId"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	TotalDurationDays float64         `json:"totalDurationDays"`
	Items             []ScheduledItem `json:"items"`
	CriticalPath      []string        `json:"criticalPath"`
	IsFeasible        bool            `json:"isFeasible"`
	Warnings          []string        `json:"warnings"`
}

// DateChange records one downstream write made by constraint propagation.
type DateChange struct {
	ItemID   string    `json:"itemId"`
	ItemType ItemType  `json:"itemType"`
	OldStart time.Time `json:"oldStart"`
	OldEnd   time.Time `json:"oldEnd"`
	NewStart time.Time `json:"newStart"`
	NewEnd   time.Time `json:"newEnd"`
}
