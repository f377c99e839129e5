package usecase

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

// IPublishUsecase accepts publish requests, fans them out one job per account
// and answers job status queries.
type IPublishUsecase interface {
	Publish(ctx context.Context, userID string, req dto.PublishRequest) (*dto.PublishResponse, error)
	JobStatus(ctx context.Context, userID, jobID string) (*dto.JobStatusResponse, error)
	Cancel(ctx context.Context, userID, jobID string) error
}

type publishUsecase struct {
	accountRepo  repository.IConnectedAccount
	jobRepo      repository.IPublishJob
	adapters     AdapterRegistry
	orchestrator *Orchestrator
}

func NewPublishUsecase(accountRepo repository.IConnectedAccount, jobRepo repository.IPublishJob, adapters AdapterRegistry, orchestrator *Orchestrator) IPublishUsecase {
	return &publishUsecase{
		accountRepo:  accountRepo,
		jobRepo:      jobRepo,
		adapters:     adapters,
		orchestrator: orchestrator,
	}
}

// Publish validates per account and creates one job per account that passes.
// Accounts that fail validation land in the Errors map; they never block the
// rest of the fan-out.
func (u *publishUsecase) Publish(ctx context.Context, userID string, req dto.PublishRequest) (*dto.PublishResponse, error) {
	if len(req.AccountIDs) == 0 {
		return nil, &model.ValidationError{Reason: model.ReasonMalformedContent}
	}
	if strings.TrimSpace(req.Content) == "" && len(req.MediaURLs) == 0 {
		return nil, &model.ValidationError{Reason: model.ReasonMalformedContent}
	}

	content := model.PublishContent{
		Text:        req.Content,
		MediaURLs:   req.MediaURLs,
		ScheduledAt: req.ScheduledAt,
	}
	res := &dto.PublishResponse{Jobs: map[int64]string{}, Errors: map[int64]string{}}

	for _, accountID := range req.AccountIDs {
		job, err := u.createJob(ctx, userID, accountID, content)
		if err != nil {
			res.Errors[accountID] = err.Error()
			continue
		}
		res.Jobs[accountID] = job.ID
		if job.Content.ScheduledAt != nil && job.Content.ScheduledAt.After(time.Now()) {
			// Left pending; the recovery loop dispatches it when due.
			continue
		}
		go u.orchestrator.Run(context.WithoutCancel(ctx), job)
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

func (u *publishUsecase) createJob(ctx context.Context, userID string, accountID int64, content model.PublishContent) (*model.PublishJob, error) {
	account, err := u.accountRepo.GetByID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	if !account.IsActive {
		return nil, &model.ValidationError{Reason: model.ReasonAccountInactive}
	}
	adapter, err := u.adapters.Get(account.Platform)
	if err != nil {
		return nil, err
	}
	if _, ok := adapter.(repository.IAsyncPublisher); ok {
		// Container platforms are media-first; nothing to upload means the
		// request cannot succeed, so reject before creating a job.
		if len(content.MediaURLs) == 0 {
			return nil, &model.ValidationError{Reason: model.ReasonMalformedContent}
		}
	} else if _, ok := adapter.(repository.ISyncPublisher); !ok {
		return nil, &model.ValidationError{Reason: model.ReasonUnsupportedPlatform}
	}

	job := &model.PublishJob{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		UserID:    userID,
		Platform:  account.Platform,
		Content:   content,
		State:     model.JobStatePending,
	}
	if err := u.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("job_id", job.ID).
		WithField("account_id", account.ID).
		WithField("platform", account.Platform).
		Info("Publish job accepted")
	return job, nil
}

func (u *publishUsecase) JobStatus(ctx context.Context, userID, jobID string) (*dto.JobStatusResponse, error) {
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	return &dto.JobStatusResponse{
		JobID:          job.ID,
		AccountID:      job.AccountID,
		Platform:       job.Platform,
		State:          string(job.State),
		PlatformPostID: job.PlatformPostID,
		Error:          job.ErrorMessage,
	}, nil
}

// Cancel terminates a job that has not reached a terminal state. The running
// driver notices on its next transition attempt and stops.
func (u *publishUsecase) Cancel(ctx context.Context, userID, jobID string) error {
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	if err != nil {
		return err
	}
	if job.UserID != userID {
		return &model.ValidationError{Reason: model.ReasonAccountNotFound}
	}
	msg := "canceled by user"
	ok, err := u.jobRepo.Transition(ctx, jobID, model.JobStateFailed, "", "", &msg)
	if err != nil {
		return err
	}
	if !ok {
		return &model.ValidationError{Reason: "job_already_terminal"}
	}
	return nil
}
