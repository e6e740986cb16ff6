package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/foodbank-planner/backend-go/internal/inventory"
	"github.com/foodbank-planner/backend-go/internal/metrics"
	"github.com/foodbank-planner/backend-go/internal/planner"
	"github.com/rs/zerolog/log"
)

// Worker plans many inventory workbooks concurrently, one planner per file
type Worker struct {
	config Config
}

// NewWorker creates a new batch worker
func NewWorker(config Config) *Worker {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	return &Worker{config: config}
}

// ProcessDir plans every inventory_<user>.xlsx workbook in dir
func (w *Worker) ProcessDir(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := inventory.UserFromPath(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return w.ProcessFiles(ctx, files)
}

// ProcessFiles plans the given workbooks. A failing file does not stop the
// others; the returned error reports how many failed.
func (w *Worker) ProcessFiles(ctx context.Context, files []string) (*Summary, error) {
	jobs := make([]*FileJob, 0, len(files))
	for _, file := range files {
		userID, ok := inventory.UserFromPath(file)
		if !ok {
			return nil, fmt.Errorf("not an inventory workbook: %s", file)
		}
		jobs = append(jobs, &FileJob{
			UserID:     userID,
			FilePath:   file,
			OutputPath: w.outputPath(file, userID),
			Status:     FileStatusQueued,
		})
	}

	log.Info().Int("files", len(jobs)).Int("workers", w.config.WorkerCount).Msg("Starting batch planning")

	if err := w.processFilesParallel(ctx, jobs); err != nil {
		return nil, err
	}

	summary := &Summary{Jobs: jobs}
	for _, job := range jobs {
		switch job.Status {
		case FileStatusCompleted:
			summary.Completed++
		case FileStatusFailed:
			summary.Failed++
		}
	}

	log.Info().Int("completed", summary.Completed).Int("failed", summary.Failed).Msg("Batch planning completed")

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d files failed", summary.Failed, len(jobs))
	}
	return summary, nil
}

func (w *Worker) outputPath(file, userID string) string {
	dir := w.config.OutputDir
	if dir == "" {
		dir = filepath.Dir(file)
	}
	return filepath.Join(dir, fmt.Sprintf("plan_%s.xlsx", userID))
}

// processFilesParallel processes files using a worker pool
func (w *Worker) processFilesParallel(ctx context.Context, jobs []*FileJob) error {
	jobChan := make(chan *FileJob, len(jobs))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < w.config.WorkerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if err := w.processFile(ctx, job); err != nil {
					log.Warn().Err(err).Int("worker", workerID).Str("file", job.FilePath).Msg("Failed to plan file")
				}
			}
		}(i)
	}

	// Enqueue jobs
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(jobChan)
			wg.Wait()
			return ctx.Err()
		case jobChan <- job:
		}
	}
	close(jobChan)

	// Wait for all workers
	wg.Wait()
	return ctx.Err()
}

// processFile plans a single workbook and writes its plan
func (w *Worker) processFile(ctx context.Context, job *FileJob) error {
	startTime := time.Now()
	job.Status = FileStatusProcessing

	if err := ctx.Err(); err != nil {
		return w.markJobFailed(job, err)
	}

	table, err := inventory.LoadFile(job.FilePath)
	if err != nil {
		return w.markJobFailed(job, fmt.Errorf("load failed: %w", err))
	}

	plan, err := planner.New(w.config.Model).TrainAndPlan(table)
	if err != nil {
		return w.markJobFailed(job, fmt.Errorf("planning failed: %w", err))
	}

	if err := inventory.WritePlan(job.OutputPath, plan); err != nil {
		return w.markJobFailed(job, err)
	}

	job.Status = FileStatusCompleted
	job.Items = len(plan)
	job.Duration = time.Since(startTime)
	now := time.Now()
	job.ProcessedAt = &now
	metrics.BatchFiles.WithLabelValues(string(FileStatusCompleted)).Inc()

	log.Debug().Str("user_id", job.UserID).Int("items", job.Items).Dur("duration", job.Duration).Msg("Planned inventory file")
	return nil
}

// markJobFailed marks a job as failed
func (w *Worker) markJobFailed(job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	now := time.Now()
	job.ProcessedAt = &now
	metrics.BatchFiles.WithLabelValues(string(FileStatusFailed)).Inc()
	return err
}
