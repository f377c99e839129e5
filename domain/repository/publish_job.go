package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

// IPublishJob persists publish jobs. Transition must refuse to move a job out
// of a terminal state; callers rely on that guard for finalize-once semantics.
type IPublishJob interface {
	Create(ctx context.Context, job *model.PublishJob) error
	GetByID(ctx context.Context, jobID string) (*model.PublishJob, error)
	// Transition updates state plus the optional platform identifiers and error
	// accumulated as the job progresses. Returns false when the stored state is
	// already terminal (the update is skipped).
	Transition(ctx context.Context, jobID string, state model.JobState, containerID, platformPostID string, errMsg *string) (bool, error)
	// FetchResumable returns non-terminal jobs not touched since cutoff plus
	// scheduled jobs that have become due, for the recovery/dispatch loop.
	FetchResumable(ctx context.Context, cutoff time.Time, limit int) ([]*model.PublishJob, error)
}

// IPublishAudit is an append-only trail of terminal job transitions.
type IPublishAudit interface {
	Append(ctx context.Context, audit *model.PublishAudit) error
}
