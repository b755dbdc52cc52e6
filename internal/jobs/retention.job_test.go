package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"replay/internal/models"
	"replay/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubHistoryRepo struct {
	deleteStaleFn func(ctx context.Context, olderThan time.Time) (int64, error)
}

func (s *stubHistoryRepo) RecordPlay(
	ctx context.Context,
	entry *models.HistoryEntry,
) (*models.HistoryEntry, error) {
	return entry, nil
}

func (s *stubHistoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) GetRecent(
	ctx context.Context,
	limit, offset int,
) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) GetLiked(ctx context.Context) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) GetMostPlayed(
	ctx context.Context,
	limit int,
) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) ToggleLike(
	ctx context.Context,
	id uuid.UUID,
) (*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubHistoryRepo) DeleteAll(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *stubHistoryRepo) DeleteStaleUnliked(
	ctx context.Context,
	olderThan time.Time,
) (int64, error) {
	if s.deleteStaleFn != nil {
		return s.deleteStaleFn(ctx, olderThan)
	}
	return 0, nil
}

func TestRetentionJob_Name(t *testing.T) {
	job := NewRetentionJob(&stubHistoryRepo{}, 90, services.Daily)
	assert.Equal(t, "HistoryRetention", job.Name())
}

func TestRetentionJob_Schedule(t *testing.T) {
	job := NewRetentionJob(&stubHistoryRepo{}, 90, services.Daily)
	assert.Equal(t, services.Daily, job.Schedule())
}

func TestRetentionJob_Execute(t *testing.T) {
	t.Run("prunes with cutoff at the retention boundary", func(t *testing.T) {
		var gotCutoff time.Time
		called := false
		repo := &stubHistoryRepo{
			deleteStaleFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
				called = true
				gotCutoff = olderThan
				return 5, nil
			},
		}

		job := NewRetentionJob(repo, 90, services.Daily)
		err := job.Execute(context.Background())

		assert.NoError(t, err)
		assert.True(t, called)

		expected := time.Now().UTC().AddDate(0, 0, -90)
		assert.WithinDuration(t, expected, gotCutoff, time.Minute)
	})

	t.Run("zero retention days disables pruning", func(t *testing.T) {
		called := false
		repo := &stubHistoryRepo{
			deleteStaleFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
				called = true
				return 0, nil
			},
		}

		job := NewRetentionJob(repo, 0, services.Daily)
		err := job.Execute(context.Background())

		assert.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("repository failure surfaces", func(t *testing.T) {
		repoErr := errors.New("prune failed")
		repo := &stubHistoryRepo{
			deleteStaleFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
				return 0, repoErr
			},
		}

		job := NewRetentionJob(repo, 30, services.Daily)
		err := job.Execute(context.Background())

		assert.Error(t, err)
		assert.Equal(t, repoErr, err)
	})
}
