package servicebus

import (
	"context"
	"encoding/json"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// IJobEventSender mirrors terminal publish-job transitions onto an Azure
// Service Bus queue for consumers living on that side of the fence.
type IJobEventSender interface {
	SendJobEvent(ctx context.Context, job *model.PublishJob) error
}

type JobEventSender struct {
	client *azservicebus.Client
	queue  string
}

func NewJobEventSender(client *azservicebus.Client, queue string) IJobEventSender {
	return &JobEventSender{client: client, queue: queue}
}

func (s *JobEventSender) SendJobEvent(ctx context.Context, job *model.PublishJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	sender, err := s.client.NewSender(s.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, ctx)

	msg := &azservicebus.Message{Body: payload}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
