package model

import "time"

// JobState is the publish job state machine vocabulary shared across platforms.
// Synchronous platforms jump straight from pending to published; the container
// states are only visited by asynchronous media platforms.
type JobState string

const (
	JobStatePending          JobState = "pending"
	JobStateContainerCreated JobState = "container_created"
	JobStateProcessing       JobState = "processing"
	JobStateReady            JobState = "ready"
	JobStatePublished        JobState = "published"
	JobStateFailed           JobState = "failed"
	JobStateTimedOut         JobState = "timed_out"
)

// Terminal reports whether the state is final. Terminal jobs are immutable.
func (s JobState) Terminal() bool {
	switch s {
	case JobStatePublished, JobStateFailed, JobStateTimedOut:
		return true
	}
	return false
}

// ContainerStatus is the adapter-reported status of a platform-side media container.
type ContainerStatus string

const (
	ContainerProcessing ContainerStatus = "processing"
	ContainerReady      ContainerStatus = "ready"
	ContainerError      ContainerStatus = "error"
)

// PublishContent is the platform-agnostic content payload of a publish request.
type PublishContent struct {
	Text        string     `json:"text"`
	MediaURLs   []string   `json:"media_urls,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// PublishJob tracks one (account, content) pairing from acceptance to a terminal state.
// One job never spans multiple accounts.
type PublishJob struct {
	ID             string         `json:"id"`
	AccountID      int64          `json:"account_id"`
	UserID         string         `json:"user_id"`
	Platform       string         `json:"platform"`
	Content        PublishContent `json:"content"`
	State          JobState       `json:"state"`
	ContainerID    string         `json:"container_id,omitempty"`
	PlatformPostID string         `json:"platform_post_id,omitempty"`
	ErrorMessage   *string        `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PublishAudit is an append-only log entry recorded on every terminal transition.
type PublishAudit struct {
	JobID          string    `json:"job_id" bson:"job_id"`
	AccountID      int64     `json:"account_id" bson:"account_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Platform       string    `json:"platform" bson:"platform"`
	State          JobState  `json:"state" bson:"state"`
	PlatformPostID string    `json:"platform_post_id,omitempty" bson:"platform_post_id,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
