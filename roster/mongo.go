package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "zkvote"
	// VotersCollection holds one document per voter, keyed by idHash.
	VotersCollection = "voters"

	connectTimeout = 10 * time.Second
)

// MongoRoster is a roster stored in the voters collection of a MongoDB
// database.
type MongoRoster struct {
	client *mongo.Client
	voters *mongo.Collection
}

// NewMongo connects to the MongoDB server at url and makes sure the unique
// idHash index exists.
func NewMongo(ctx context.Context, url, database string) (*MongoRoster, error) {
	if url == "" {
		return nil, fmt.Errorf("mongodb url is required")
	}
	if database == "" {
		database = DefaultDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot ping mongodb: %w", err)
	}
	voters := client.Database(database).Collection(VotersCollection)
	if _, err := voters.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "idHash", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot create idHash index: %w", err)
	}
	log.Infow("connected to voter roster", "database", database, "collection", VotersCollection)
	return &MongoRoster{client: client, voters: voters}, nil
}

func (m *MongoRoster) FindVoterByCommitment(ctx context.Context, commitment *types.BigInt) (bool, error) {
	err := m.voters.FindOne(ctx, bson.M{"idHash": commitment.String()}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find voter: %w", err)
	}
	return true, nil
}

func (m *MongoRoster) AddVoter(ctx context.Context, commitment *types.BigInt, meta Voter) error {
	_, err := m.voters.InsertOne(ctx, newVoter(commitment, meta))
	if mongo.IsDuplicateKeyError(err) {
		return ErrVoterExists
	}
	if err != nil {
		return fmt.Errorf("add voter: %w", err)
	}
	return nil
}

// Drop removes the voters collection.
func (m *MongoRoster) Drop(ctx context.Context) error {
	return m.voters.Drop(ctx)
}

func (m *MongoRoster) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
