package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection        = "users"
	applicationsCollection = "applications"
	sessionsCollection     = "sessions"
)

// MongoStore keeps one collection per entity. IDs are ObjectID hex strings
// so they pass the same ID checks as the other backends.
type MongoStore struct {
	client       *mongo.Client
	users        *mongo.Collection
	applications *mongo.Collection
	sessions     *mongo.Collection
}

// NewMongoStore binds to database and creates the unique indexes that
// enforce the storage invariants.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	db := client.Database(database)
	s := &MongoStore{
		client:       client,
		users:        db.Collection(usersCollection),
		applications: db.Collection(applicationsCollection),
		sessions:     db.Collection(sessionsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		s.applications: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "program", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "referenceNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "submissionDate", Value: -1}}},
		},
		s.sessions: {
			{Keys: bson.D{{Key: "refreshTokenHash", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "tokenId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Mode() string { return ModeMongo }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var err error
	if c.Users, err = s.users.CountDocuments(ctx, bson.M{}); err != nil {
		return c, mongoErr(err)
	}
	if c.Applications, err = s.applications.CountDocuments(ctx, bson.M{}); err != nil {
		return c, mongoErr(err)
	}
	if c.Sessions, err = s.sessions.CountDocuments(ctx, bson.M{}); err != nil {
		return c, mongoErr(err)
	}
	return c, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.users.InsertOne(ctx, u)
	return mongoErr(err)
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	return &u, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	return &u, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	return replace(ctx, s.users, u.ID, u)
}

func (s *MongoStore) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.applications.InsertOne(ctx, a)
	return mongoErr(err)
}

func (s *MongoStore) FindApplicationByID(ctx context.Context, id string) (*models.Application, error) {
	var a models.Application
	if err := s.applications.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mongoErr(err)
	}
	return &a, nil
}

func (s *MongoStore) FindApplicationByUserAndProgram(ctx context.Context, userID, program string) (*models.Application, error) {
	var a models.Application
	err := s.applications.FindOne(ctx, bson.M{"userId": userID, "program": program}).Decode(&a)
	if err != nil {
		return nil, mongoErr(err)
	}
	return &a, nil
}

func (s *MongoStore) ListApplications(ctx context.Context, userID string) ([]models.Application, error) {
	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "submissionDate", Value: -1}})
	cur, err := s.applications.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoErr(err)
	}
	apps := make([]models.Application, 0)
	if err := cur.All(ctx, &apps); err != nil {
		return nil, mongoErr(err)
	}
	return apps, nil
}

func (s *MongoStore) UpdateApplication(ctx context.Context, a *models.Application) error {
	return replace(ctx, s.applications, a.ID, a)
}

func (s *MongoStore) DeleteApplication(ctx context.Context, id string) error {
	return deleteOne(ctx, s.applications, id)
}

func (s *MongoStore) CreateSession(ctx context.Context, sess *models.Session) error {
	if sess.ID == "" {
		sess.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.sessions.InsertOne(ctx, sess)
	return mongoErr(err)
}

func (s *MongoStore) FindSessionByRefreshHash(ctx context.Context, hash string) (*models.Session, error) {
	return s.findSession(ctx, bson.M{"refreshTokenHash": hash})
}

func (s *MongoStore) FindSessionByTokenID(ctx context.Context, tokenID string) (*models.Session, error) {
	return s.findSession(ctx, bson.M{"tokenId": tokenID})
}

func (s *MongoStore) findSession(ctx context.Context, filter bson.M) (*models.Session, error) {
	var sess models.Session
	if err := s.sessions.FindOne(ctx, filter).Decode(&sess); err != nil {
		return nil, mongoErr(err)
	}
	return &sess, nil
}

func (s *MongoStore) UpdateSession(ctx context.Context, sess *models.Session) error {
	return replace(ctx, s.sessions, sess.ID, sess)
}

func (s *MongoStore) DeleteSession(ctx context.Context, id string) error {
	return deleteOne(ctx, s.sessions, id)
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("mongo store: %w", err)
	}
}
