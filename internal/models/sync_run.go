package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BackendDatabase = "database"
	BackendGitHub   = "github"
)

// SyncRun records the outcome of one remote delivery attempt.
type SyncRun struct {
	gorm.Model
	Backend    string    `json:"backend" gorm:"index"`
	Operation  string    `json:"operation"`
	Records    int       `json:"records"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
