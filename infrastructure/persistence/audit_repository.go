package persistence

import (
	"context"
	"time"

	"social-publisher/domain/model"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// AuditRepository appends publish audit entries to MongoDB. The client may be
// nil (Mongo unavailable); Append is then a no-op so publishing never depends
// on the audit store.
type AuditRepository struct {
	client *mongo.Client
	dbName string
}

func NewAuditRepository(client *mongo.Client, dbName string) *AuditRepository {
	return &AuditRepository{client: client, dbName: dbName}
}

func (r *AuditRepository) Append(ctx context.Context, audit *model.PublishAudit) error {
	if r.client == nil {
		return nil
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	coll := r.client.Database(r.dbName).Collection("publish_audit")
	_, err := coll.InsertOne(ctx, audit)
	return err
}
