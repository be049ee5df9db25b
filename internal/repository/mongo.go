package repository

import (
	"context"

	mongoInfra "github.com/RishiKendai/codesim/internal/infra/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(client *mongoInfra.Client) *MongoRepository {
	return &MongoRepository{
		db: client.Database,
	}
}

func (r *MongoRepository) UpsertOne(ctx context.Context, collection string, filter, update interface{}) error {
	_, err := r.db.Collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoRepository) FindOne(ctx context.Context, collection string, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	return r.db.Collection(collection).FindOne(ctx, filter, opts...)
}

func (r *MongoRepository) Distinct(ctx context.Context, collection, field string, filter interface{}) ([]interface{}, error) {
	return r.db.Collection(collection).Distinct(ctx, field, filter)
}

func (r *MongoRepository) EnsureIndex(ctx context.Context, collection string, model mongo.IndexModel) error {
	_, err := r.db.Collection(collection).Indexes().CreateOne(ctx, model)
	return err
}
