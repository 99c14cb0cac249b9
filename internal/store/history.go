package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/models"
)

// TrainingHistory is an append-only JSONL log of training runs. Records are
// never mutated after creation; statistics are derived by scanning the log.
type TrainingHistory struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewTrainingHistory creates a history log at path, creating parent
// directories if needed.
func NewTrainingHistory(path string, logger *logrus.Logger) (*TrainingHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &TrainingHistory{path: path, logger: logger}, nil
}

// Append writes one training run to the end of the log.
func (h *TrainingHistory) Append(run *models.TrainingRun) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("%w: marshal training run: %v", models.ErrSerialization, err)
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append training run: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"models":   len(run.Models),
		"duration": run.Duration,
	}).Info("Recorded training run")
	return nil
}

// List returns all recorded training runs in append order. A missing log file
// is an empty history, not an error.
func (h *TrainingHistory) List() ([]models.TrainingRun, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	var runs []models.TrainingRun
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var run models.TrainingRun
		if err := json.Unmarshal(line, &run); err != nil {
			// A torn trailing line from a crashed append is skipped,
			// not fatal: the log before it is still intact.
			h.logger.WithError(err).Warn("Skipping unreadable training history line")
			continue
		}
		runs = append(runs, run)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan history log: %w", err)
	}
	return runs, nil
}

// Stats aggregates the history log into overall training statistics.
func (h *TrainingHistory) Stats() (*models.TrainingStats, error) {
	runs, err := h.List()
	if err != nil {
		return nil, err
	}

	stats := &models.TrainingStats{
		TotalRuns:    len(runs),
		BestAccuracy: make(map[string]float64),
	}
	if len(runs) == 0 {
		return stats, nil
	}

	var total time.Duration
	for _, run := range runs {
		total += run.Duration
		if run.StartedAt.After(stats.LastRunAt) {
			stats.LastRunAt = run.StartedAt
		}
		for _, m := range run.Models {
			if m.TestAccuracy > stats.BestAccuracy[m.ModelType] {
				stats.BestAccuracy[m.ModelType] = m.TestAccuracy
			}
		}
	}
	stats.AverageDuration = total / time.Duration(len(runs))
	return stats, nil
}
