package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"social-publisher/domain/model"
)

// PublishJobRepository persists publish jobs (PostgreSQL).
type PublishJobRepository struct{ db *sql.DB }

func NewPublishJobRepository(db *sql.DB) *PublishJobRepository {
	return &PublishJobRepository{db: db}
}

const jobColumns = `id, account_id, user_id, platform, content_text, media_urls, scheduled_at,
	state, container_id, platform_post_id, error_message, created_at, updated_at`

func (r *PublishJobRepository) Create(ctx context.Context, job *model.PublishJob) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	media, err := json.Marshal(job.Content.MediaURLs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO publish_jobs
		(id, account_id, user_id, platform, content_text, media_urls, scheduled_at, state, container_id, platform_post_id, error_message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		job.ID, job.AccountID, job.UserID, job.Platform, job.Content.Text, string(media), job.Content.ScheduledAt,
		string(job.State), job.ContainerID, job.PlatformPostID, job.ErrorMessage, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *PublishJobRepository) GetByID(ctx context.Context, jobID string) (*model.PublishJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM publish_jobs WHERE id=$1`, jobID)
	return scanJob(row)
}

// Transition moves a job to the given state unless the stored state is already
// terminal. The guard lives in the WHERE clause so the check and the write are
// one statement.
func (r *PublishJobRepository) Transition(ctx context.Context, jobID string, state model.JobState, containerID, platformPostID string, errMsg *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE publish_jobs SET
			state=$1,
			container_id=CASE WHEN $2 <> '' THEN $2 ELSE container_id END,
			platform_post_id=CASE WHEN $3 <> '' THEN $3 ELSE platform_post_id END,
			error_message=$4,
			updated_at=$5
		WHERE id=$6 AND state NOT IN ('published','failed','timed_out')`,
		string(state), containerID, platformPostID, errMsg, time.Now().UTC(), jobID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// FetchResumable returns non-terminal jobs whose last update is older than
// cutoff, plus pending scheduled jobs that have become due. A job scheduled
// for the future is never stale, no matter how old its last update is.
func (r *PublishJobRepository) FetchResumable(ctx context.Context, cutoff time.Time, limit int) ([]*model.PublishJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM publish_jobs
		WHERE state NOT IN ('published','failed','timed_out')
		  AND (
			(scheduled_at IS NOT NULL AND scheduled_at <= $1 AND state = 'pending')
			OR (updated_at < $2 AND (scheduled_at IS NULL OR scheduled_at <= $1))
		  )
		ORDER BY created_at ASC LIMIT $3`, time.Now().UTC(), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*model.PublishJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (*model.PublishJob, error) {
	j := &model.PublishJob{}
	var (
		media, containerID, postID, errMsg sql.NullString
		scheduledAt                        sql.NullTime
		state                              string
	)
	err := row.Scan(&j.ID, &j.AccountID, &j.UserID, &j.Platform, &j.Content.Text, &media, &scheduledAt,
		&state, &containerID, &postID, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.State = model.JobState(state)
	if media.Valid && media.String != "" {
		_ = json.Unmarshal([]byte(media.String), &j.Content.MediaURLs)
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		j.Content.ScheduledAt = &t
	}
	if containerID.Valid {
		j.ContainerID = containerID.String
	}
	if postID.Valid {
		j.PlatformPostID = postID.String
	}
	if errMsg.Valid {
		j.ErrorMessage = &errMsg.String
	}
	return j, nil
}
