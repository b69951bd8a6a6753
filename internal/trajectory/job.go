package trajectory

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued trajectory build. Result holds the built trajectory JSON
// once succeeded; Error holds the failure reason otherwise.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	UserID    string `gorm:"size:64;index;not null" json:"-"`
	SessionID string `gorm:"size:64;index;not null" json:"session_id"`

	WeeklyHours           int `gorm:"not null" json:"weekly_hours"`
	TotalMonths           int `gorm:"not null" json:"total_months"`
	TargetPositionsLimit  int `gorm:"not null" json:"target_positions_limit"`
	CurrentPositionsLimit int `gorm:"not null" json:"current_positions_limit"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	Result *string `gorm:"type:text" json:"result,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "trajectory_jobs" }
