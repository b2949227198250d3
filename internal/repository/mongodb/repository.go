package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

const shiftReportsCollection = "shift_reports"

// Archive stores closed shift reports.
type Archive interface {
	SaveShiftReport(ctx context.Context, doc models.ShiftReportDocument) error
	RecentShiftReports(ctx context.Context, policy string, limit int64) ([]models.ShiftReportDocument, error)
}

// MongoDBRepository implements Archive on top of MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: shiftReportsCollection,
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveShiftReport upserts the report keyed by policy and shift start, so a
// shift closed twice keeps one document.
func (r *MongoDBRepository) SaveShiftReport(ctx context.Context, doc models.ShiftReportDocument) error {
	filter := bson.M{"policy": doc.Policy, "shift_start": doc.ShiftStart}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection().ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save shift report: %w", err)
	}
	return nil
}

// RecentShiftReports returns the newest archived reports first.
func (r *MongoDBRepository) RecentShiftReports(ctx context.Context, policy string, limit int64) ([]models.ShiftReportDocument, error) {
	filter := bson.M{}
	if policy != "" {
		filter["policy"] = policy
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "shift_start", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift reports: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.ShiftReportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode shift reports: %w", err)
	}
	return docs, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
