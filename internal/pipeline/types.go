package pipeline

import (
	"time"

	"github.com/foodbank-planner/backend-go/internal/forest"
)

// Config holds configuration for a batch planning run
type Config struct {
	WorkerCount int           // Number of files planned concurrently
	OutputDir   string        // Directory for plan workbooks, empty = next to the input
	Model       forest.Config // Model parameters for every per-file planner
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		Model:       forest.DefaultConfig(),
	}
}

// FileJobStatus represents the state of a single file planning job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// FileJob tracks the planning of a single inventory workbook
type FileJob struct {
	UserID       string
	FilePath     string
	OutputPath   string
	Status       FileJobStatus
	ErrorMessage string
	Items        int
	Duration     time.Duration
	ProcessedAt  *time.Time
}

// Summary reports the outcome of a batch run
type Summary struct {
	Jobs      []*FileJob
	Completed int
	Failed    int
}
