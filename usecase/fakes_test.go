package usecase

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

// fakeAccountRepo is an in-memory IConnectedAccount.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]*model.ConnectedAccount

	updateCredentialCalls int
	deactivateCalls       int
}

func newFakeAccountRepo(accounts ...*model.ConnectedAccount) *fakeAccountRepo {
	m := make(map[int64]*model.ConnectedAccount, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}
	return &fakeAccountRepo{accounts: m}
}

func (f *fakeAccountRepo) Upsert(_ context.Context, account *model.ConnectedAccount) (*model.ConnectedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.UserID == account.UserID && existing.Platform == account.Platform {
			account.ID = existing.ID
			f.accounts[existing.ID] = account
			return account, nil
		}
	}
	account.ID = int64(len(f.accounts) + 1)
	f.accounts[account.ID] = account
	return account, nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, accountID int64) (*model.ConnectedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *account
	return &cp, nil
}

func (f *fakeAccountRepo) ListByUser(_ context.Context, userID string) ([]*model.ConnectedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ConnectedAccount
	for _, a := range f.accounts {
		if a.UserID == userID && a.IsActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) UpdateCredential(_ context.Context, accountID int64, cred model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCredentialCalls++
	if a, ok := f.accounts[accountID]; ok {
		a.Credential = cred
	}
	return nil
}

func (f *fakeAccountRepo) Deactivate(_ context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivateCalls++
	if a, ok := f.accounts[accountID]; ok {
		a.IsActive = false
	}
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, accountID)
	return nil
}

// fakeJobRepo is an in-memory IPublishJob with the same terminal-state guard
// as the SQL implementation.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.PublishJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*model.PublishJob{}}
}

func (f *fakeJobRepo) Create(_ context.Context, job *model.PublishJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, jobID string) (*model.PublishJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) Transition(_ context.Context, jobID string, state model.JobState, containerID, platformPostID string, errMsg *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.State.Terminal() {
		return false, nil
	}
	job.State = state
	if containerID != "" {
		job.ContainerID = containerID
	}
	if platformPostID != "" {
		job.PlatformPostID = platformPostID
	}
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeJobRepo) FetchResumable(_ context.Context, cutoff time.Time, limit int) ([]*model.PublishJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PublishJob
	for _, job := range f.jobs {
		if job.State.Terminal() {
			continue
		}
		due := job.Content.ScheduledAt != nil && !job.Content.ScheduledAt.After(time.Now()) && job.State == model.JobStatePending
		stale := job.UpdatedAt.Before(cutoff) &&
			(job.Content.ScheduledAt == nil || !job.Content.ScheduledAt.After(time.Now()))
		if due || stale {
			cp := *job
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeJobRepo) backdate(jobID string, createdAt, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[jobID]; ok {
		job.CreatedAt = createdAt
		job.UpdatedAt = updatedAt
	}
}

func (f *fakeJobRepo) states(jobID string) (model.JobState, string, *string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	return job.State, job.PlatformPostID, job.ErrorMessage
}

// fakeAuditRepo records appended entries.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*model.PublishAudit
}

func (f *fakeAuditRepo) Append(_ context.Context, audit *model.PublishAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, audit)
	return nil
}

// fakeRegistry resolves platforms from the map when set, falling back to the
// single adapter for tests that only exercise one platform.
type fakeRegistry struct {
	adapter  repository.IPlatformAdapter
	adapters map[string]repository.IPlatformAdapter
}

func (f *fakeRegistry) Get(platform string) (repository.IPlatformAdapter, error) {
	if a, ok := f.adapters[platform]; ok {
		return a, nil
	}
	return f.adapter, nil
}

// fakeAdapter implements IPlatformAdapter; publish capability is layered on by
// embedding it in fakeSyncAdapter / fakeAsyncAdapter.
type fakeAdapter struct {
	platform string

	mu           sync.Mutex
	refreshCalls int
	refreshCred  *model.Credential
	refreshErr   error
	refreshDelay time.Duration
}

func (f *fakeAdapter) Platform() string { return f.platform }

func (f *fakeAdapter) UsesPKCE() bool { return false }

func (f *fakeAdapter) AuthorizationURL(state, _ string) string {
	return "https://example.test/auth?state=" + state
}

func (f *fakeAdapter) ExchangeCode(context.Context, string, string) (*model.Credential, error) {
	return &model.Credential{AccessToken: "exchanged"}, nil
}

func (f *fakeAdapter) RefreshToken(context.Context, string) (*model.Credential, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshCred, nil
}

func (f *fakeAdapter) FetchProfile(context.Context, *model.Credential) (*model.NormalizedProfile, error) {
	return &model.NormalizedProfile{PlatformAccountID: "acct-1", Username: "tester", DisplayName: "Tester"}, nil
}

func (f *fakeAdapter) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type fakeSyncAdapter struct {
	fakeAdapter
	publishErr error

	mu           sync.Mutex
	publishCalls int
}

func (f *fakeSyncAdapter) Publish(context.Context, *model.Credential, *model.ConnectedAccount, model.PublishContent) (string, error) {
	f.mu.Lock()
	f.publishCalls++
	f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return "post-123", nil
}

type fakeAsyncAdapter struct {
	fakeAdapter

	pollStatuses []model.ContainerStatus
	pollReason   string

	mu            sync.Mutex
	pollCalls     int
	finalizeCalls int
}

func (f *fakeAsyncAdapter) CreateContainer(context.Context, *model.Credential, *model.ConnectedAccount, model.PublishContent) (string, error) {
	return "container-1", nil
}

func (f *fakeAsyncAdapter) PollStatus(context.Context, *model.Credential, string) (model.ContainerStatus, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.pollCalls
	f.pollCalls++
	if idx >= len(f.pollStatuses) {
		if len(f.pollStatuses) == 0 {
			return model.ContainerProcessing, "", nil
		}
		idx = len(f.pollStatuses) - 1
	}
	status := f.pollStatuses[idx]
	if status == model.ContainerError {
		return status, f.pollReason, nil
	}
	return status, "", nil
}

func (f *fakeAsyncAdapter) Finalize(context.Context, *model.Credential, *model.ConnectedAccount, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls++
	return "post-async-1", nil
}

func activeAccount(id int64, platform string) *model.ConnectedAccount {
	return &model.ConnectedAccount{
		ID:                id,
		UserID:            "user-1",
		Platform:          platform,
		PlatformAccountID: "acct-1",
		Credential:        model.Credential{AccessToken: "tok"},
		IsActive:          true,
	}
}
