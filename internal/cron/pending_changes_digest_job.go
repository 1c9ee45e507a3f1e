package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
)

type approvalQueueCounter interface {
	PendingCounts(ctx context.Context) (map[enums.ApprovalSubject]int64, error)
}

type pendingChangesCounter interface {
	CountWithPendingChanges(ctx context.Context) (int64, error)
}

type PendingChangesDigestJobParams struct {
	Logger    *logger.Logger
	Approvals approvalQueueCounter
	Artisans  pendingChangesCounter
}

// NewPendingChangesDigestJob logs the size of the moderation backlog: artisans
// with unreviewed profile edits plus each approval queue. It never changes state.
func NewPendingChangesDigestJob(params PendingChangesDigestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Approvals == nil {
		return nil, fmt.Errorf("approvals counter required")
	}
	if params.Artisans == nil {
		return nil, fmt.Errorf("artisans counter required")
	}
	return &pendingChangesDigestJob{
		logg:      params.Logger,
		approvals: params.Approvals,
		artisans:  params.Artisans,
	}, nil
}

type pendingChangesDigestJob struct {
	logg      *logger.Logger
	approvals approvalQueueCounter
	artisans  pendingChangesCounter
}

func (j *pendingChangesDigestJob) Name() string { return "pending-changes-digest" }

func (j *pendingChangesDigestJob) Run(ctx context.Context) error {
	fields := map[string]any{}
	var errs error

	changed, err := j.artisans.CountWithPendingChanges(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count artisan changes: %w", err))
	} else {
		fields["artisans_with_pending_changes"] = changed
	}

	queues, err := j.approvals.PendingCounts(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count approval queues: %w", err))
	}
	var backlog int64
	for kind, n := range queues {
		fields["pending_"+string(kind)] = n
		backlog += n
	}
	if queues != nil {
		fields["pending_approvals_total"] = backlog
	}

	if len(fields) > 0 {
		logCtx := j.logg.WithFields(ctx, fields)
		if changed > 0 || backlog > 0 {
			j.logg.Warn(logCtx, "moderation backlog awaiting review")
		} else {
			j.logg.Info(logCtx, "moderation backlog empty")
		}
	}
	return errs
}
