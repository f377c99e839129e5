package pubsub

import (
	"context"
	"encoding/json"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// IJobEventPublisher fans terminal publish-job transitions out to downstream
// consumers (notification workers, analytics).
type IJobEventPublisher interface {
	PublishJobEvent(ctx context.Context, job *model.PublishJob) error
}

type JobEventPublisher struct {
	client *pubsub.Client
	topic  string
}

func NewJobEventPublisher(client *pubsub.Client, topic string) IJobEventPublisher {
	return &JobEventPublisher{client: client, topic: topic}
}

func (p *JobEventPublisher) PublishJobEvent(ctx context.Context, job *model.PublishJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topic).Info("Topic doesn't exist - creating it")
		if _, err = p.client.CreateTopic(ctx, p.topic); err != nil {
			return err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("job_id", job.ID).
		Info("Job event published")
	return nil
}
