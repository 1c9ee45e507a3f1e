package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
)

const (
	defaultDeadLetterWindow = 24 * time.Hour
	deadLetterSampleSize    = 20
)

type deadLetterRepo interface {
	CountSince(ctx context.Context, cutoff time.Time) (int64, error)
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

type DeadLetterReportJobParams struct {
	Logger     *logger.Logger
	Repository deadLetterRepo
	Window     time.Duration
}

// NewDeadLetterReportJob warns about outbox events that were dead-lettered
// within the window, grouped by event type. It never replays or deletes rows.
func NewDeadLetterReportJob(params DeadLetterReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultDeadLetterWindow
	}
	return &deadLetterReportJob{
		logg:   params.Logger,
		repo:   params.Repository,
		window: window,
		now:    time.Now,
	}, nil
}

type deadLetterReportJob struct {
	logg   *logger.Logger
	repo   deadLetterRepo
	window time.Duration
	now    func() time.Time
}

func (j *deadLetterReportJob) Name() string { return "dead-letter-report" }

func (j *deadLetterReportJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	count, err := j.repo.CountSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("count dead letters: %w", err)
	}
	if count == 0 {
		j.logg.Debug(ctx, "no dead-lettered events in window")
		return nil
	}

	recent, err := j.repo.List(ctx, deadLetterSampleSize)
	if err != nil {
		return fmt.Errorf("list dead letters: %w", err)
	}
	byType := map[string]int{}
	for _, row := range recent {
		if row.FailedAt.Before(cutoff) {
			continue
		}
		byType[string(row.EventType)]++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"window":        j.window.String(),
		"dead_letters":  count,
		"sample_size":   len(recent),
		"by_event_type": byType,
	})
	j.logg.Warn(logCtx, "outbox events dead-lettered")
	return nil
}
