package jobs

import (
	"context"
	"time"

	"replay/internal/repositories"
	"replay/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// RetentionJob prunes never-liked history entries whose last play is older
// than the configured retention window. Liked entries are never pruned.
type RetentionJob struct {
	historyRepo   repositories.HistoryRepository
	retentionDays int
	log           logger.Logger
	schedule      services.Schedule
}

func NewRetentionJob(
	historyRepo repositories.HistoryRepository,
	retentionDays int,
	schedule services.Schedule,
) *RetentionJob {
	log := logger.New("retentionJob")
	log.Info("Creating history retention job", "retentionDays", retentionDays)

	return &RetentionJob{
		historyRepo:   historyRepo,
		retentionDays: retentionDays,
		log:           log,
		schedule:      schedule,
	}
}

func (j *RetentionJob) Name() string {
	return "HistoryRetention"
}

func (j *RetentionJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	if j.retentionDays <= 0 {
		log.Info("Retention disabled, nothing to prune")
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)

	pruned, err := j.historyRepo.DeleteStaleUnliked(ctx, cutoff)
	if err != nil {
		return log.Err("history retention pruning failed", err, "cutoff", cutoff)
	}

	log.Info("History retention pruning completed", "pruned", pruned, "cutoff", cutoff)
	return nil
}

func (j *RetentionJob) Schedule() services.Schedule {
	return j.schedule
}
