package usecase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

// JobObserver receives every job state change that was actually applied.
// The SSE hub implements it; terminal events additionally flow to the
// configured event publishers.
type JobObserver interface {
	BroadcastJobStatus(job *model.PublishJob)
}

// TerminalEventSink receives jobs that just reached a terminal state.
type TerminalEventSink func(ctx context.Context, job *model.PublishJob)

// Orchestrator drives publish jobs through their state machine. Synchronous
// platforms go pending -> published in one call; asynchronous ones walk the
// container states under a wall-clock deadline counted from container creation.
type Orchestrator struct {
	jobRepo     repository.IPublishJob
	accountRepo repository.IConnectedAccount
	auditRepo   repository.IPublishAudit
	vault       ITokenVault
	adapters    AdapterRegistry

	pollInterval time.Duration
	deadline     time.Duration

	observer JobObserver
	sinks    []TerminalEventSink
}

func NewOrchestrator(
	jobRepo repository.IPublishJob,
	accountRepo repository.IConnectedAccount,
	auditRepo repository.IPublishAudit,
	vault ITokenVault,
	adapters AdapterRegistry,
	pollInterval, deadline time.Duration,
) *Orchestrator {
	return &Orchestrator{
		jobRepo:      jobRepo,
		accountRepo:  accountRepo,
		auditRepo:    auditRepo,
		vault:        vault,
		adapters:     adapters,
		pollInterval: pollInterval,
		deadline:     deadline,
	}
}

func (o *Orchestrator) SetObserver(obs JobObserver) { o.observer = obs }

func (o *Orchestrator) AddSink(sink TerminalEventSink) { o.sinks = append(o.sinks, sink) }

// Run drives one job until it reaches a terminal state or another writer
// terminates it first. Safe to call from a goroutine per job.
func (o *Orchestrator) Run(ctx context.Context, job *model.PublishJob) {
	lg := logger.GetLogger().WithField("job_id", job.ID).WithField("platform", job.Platform)

	account, err := o.accountRepo.GetByID(ctx, job.AccountID)
	if err != nil {
		o.fail(ctx, job, err)
		return
	}
	cred, err := o.vault.ValidCredential(ctx, account)
	if err != nil {
		o.fail(ctx, job, err)
		return
	}
	adapter, err := o.adapters.Get(job.Platform)
	if err != nil {
		o.fail(ctx, job, err)
		return
	}

	if sync, ok := adapter.(repository.ISyncPublisher); ok {
		postID, err := sync.Publish(ctx, cred, account, job.Content)
		if err != nil {
			o.fail(ctx, job, err)
			return
		}
		o.transition(ctx, job, model.JobStatePublished, "", postID, nil)
		lg.WithField("post_id", postID).Info("Job published")
		return
	}

	async, ok := adapter.(repository.IAsyncPublisher)
	if !ok {
		o.fail(ctx, job, &model.ValidationError{Reason: model.ReasonUnsupportedPlatform})
		return
	}

	containerID := job.ContainerID
	var containerCreatedAt time.Time
	if containerID == "" {
		containerID, err = async.CreateContainer(ctx, cred, account, job.Content)
		if err != nil {
			o.fail(ctx, job, err)
			return
		}
		containerCreatedAt = time.Now()
		if !o.transition(ctx, job, model.JobStateContainerCreated, containerID, "", nil) {
			return
		}
	} else {
		// Resumed job: anchor the deadline to job creation, the earliest
		// timestamp that survives a restart. It never restarts on resume.
		containerCreatedAt = job.CreatedAt
	}
	o.pollContainer(ctx, job, account, cred, async, containerID, containerCreatedAt.Add(o.deadline))
}

func (o *Orchestrator) pollContainer(
	ctx context.Context,
	job *model.PublishJob,
	account *model.ConnectedAccount,
	cred *model.Credential,
	async repository.IAsyncPublisher,
	containerID string,
	deadline time.Time,
) {
	lg := logger.GetLogger().WithField("job_id", job.ID).WithField("platform", job.Platform)
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			terr := &model.TimeoutError{JobID: job.ID, Deadline: deadline.UTC().Format(time.RFC3339)}
			msg := terr.Error()
			o.transition(ctx, job, model.JobStateTimedOut, "", "", &msg)
			lg.Warn("Job timed out waiting for container processing")
			return
		}

		status, reason, err := async.PollStatus(ctx, cred, containerID)
		if err != nil {
			o.fail(ctx, job, err)
			return
		}
		switch status {
		case model.ContainerProcessing:
			if job.State != model.JobStateProcessing {
				if !o.transition(ctx, job, model.JobStateProcessing, "", "", nil) {
					return
				}
			}
		case model.ContainerReady:
			if !o.transition(ctx, job, model.JobStateReady, "", "", nil) {
				return
			}
			postID, err := async.Finalize(ctx, cred, account, containerID)
			if err != nil {
				o.fail(ctx, job, err)
				return
			}
			o.transition(ctx, job, model.JobStatePublished, "", postID, nil)
			lg.WithField("post_id", postID).Info("Job published")
			return
		case model.ContainerError:
			if reason == "" {
				reason = "container processing failed"
			}
			o.transition(ctx, job, model.JobStateFailed, "", "", &reason)
			return
		}
	}
}

// Resume picks a recovered job back up at whatever state it was left in.
// Pending jobs scheduled for the future are left alone until they are due.
func (o *Orchestrator) Resume(ctx context.Context, job *model.PublishJob) {
	if job.State == model.JobStatePending &&
		job.Content.ScheduledAt != nil && job.Content.ScheduledAt.After(time.Now()) {
		return
	}
	switch job.State {
	case model.JobStatePending, model.JobStateContainerCreated, model.JobStateProcessing:
		o.Run(ctx, job)
	case model.JobStateReady:
		// Finalize may or may not have fired before the crash. If the post id
		// is already recorded the publish went through; just seal the job.
		if job.PlatformPostID != "" {
			o.transition(ctx, job, model.JobStatePublished, "", job.PlatformPostID, nil)
			return
		}
		o.Run(ctx, job)
	}
}

// RunRecovery periodically re-dispatches stale jobs and due scheduled jobs.
// It doubles as the scheduler: pending jobs whose scheduled_at has arrived are
// picked up here.
func (o *Orchestrator) RunRecovery(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-(o.deadline + interval))
		jobs, err := o.jobRepo.FetchResumable(ctx, cutoff, batchSize)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Job recovery scan failed")
			continue
		}
		for _, job := range jobs {
			go o.Resume(ctx, job)
		}
	}
}

// transition applies the change and fans it out. Returns false when the stored
// state is already terminal, which tells the caller to stop driving the job.
func (o *Orchestrator) transition(ctx context.Context, job *model.PublishJob, state model.JobState, containerID, postID string, errMsg *string) bool {
	ok, err := o.jobRepo.Transition(ctx, job.ID, state, containerID, postID, errMsg)
	if err != nil {
		logger.GetLogger().
			WithField("job_id", job.ID).
			WithField("state", state).
			WithField("error", err).
			Error("Job transition failed")
		return false
	}
	if !ok {
		return false
	}
	job.State = state
	if containerID != "" {
		job.ContainerID = containerID
	}
	if postID != "" {
		job.PlatformPostID = postID
	}
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()

	if o.observer != nil {
		o.observer.BroadcastJobStatus(job)
	}
	if state.Terminal() {
		o.recordTerminal(ctx, job)
	}
	return true
}

func (o *Orchestrator) recordTerminal(ctx context.Context, job *model.PublishJob) {
	if o.auditRepo != nil {
		audit := &model.PublishAudit{
			JobID:          job.ID,
			AccountID:      job.AccountID,
			UserID:         job.UserID,
			Platform:       job.Platform,
			State:          job.State,
			PlatformPostID: job.PlatformPostID,
			ErrorMessage:   job.ErrorMessage,
			CreatedAt:      time.Now().UTC(),
		}
		if err := o.auditRepo.Append(ctx, audit); err != nil {
			logger.GetLogger().WithField("error", err).Error("Audit append failed")
		}
	}
	for _, sink := range o.sinks {
		sink(ctx, job)
	}
}

func (o *Orchestrator) fail(ctx context.Context, job *model.PublishJob, cause error) {
	msg := cause.Error()
	state := model.JobStateFailed
	var terr *model.TimeoutError
	if errors.As(cause, &terr) {
		state = model.JobStateTimedOut
	}
	if errors.Is(cause, sql.ErrNoRows) {
		msg = "account not found"
	}
	o.transition(ctx, job, state, "", "", &msg)
	logger.GetLogger().
		WithField("job_id", job.ID).
		WithField("platform", job.Platform).
		WithField("error", cause).
		Warn("Job failed")
}
