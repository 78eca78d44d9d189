package users

import (
	"context"
	"errors"
	"time"

	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store using a users collection plus a counters
// collection that hands out increasing integer ids.
type MongoStore struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

// NewMongoStore wires the collections and ensures the unique email index and
// the provider lookup index exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{col: db.Collection("users"), counters: db.Collection("counters")}
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "providerId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (s *MongoStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findOne(ctx, bson.M{"id": id})
}

func (s *MongoStore) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	if provider == "" || providerID == "" {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{"provider": provider, "providerId": providerID})
}

// nextID atomically increments the users sequence. Deleted ids are never handed out again.
func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx, bson.M{"_id": "users"}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

func (s *MongoStore) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	rec := *u
	prepareInsert(&rec, time.Now().UTC())
	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	if _, err := s.col.InsertOne(ctx, &rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &rec, nil
}

func (s *MongoStore) Update(ctx context.Context, id int64, p Patch) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = models.NormalizeEmail(*p.Email)
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Provider != nil {
		set["provider"] = *p.Provider
	}
	if p.ProviderID != nil {
		set["providerId"] = *p.ProviderID
	}
	if p.Avatar != nil {
		set["avatar"] = *p.Avatar
	}
	if p.AvatarKey != nil {
		set["avatarKey"] = *p.AvatarKey
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &updated, nil
}

func (s *MongoStore) Delete(ctx context.Context, id int64) (*models.User, error) {
	var deleted models.User
	if err := s.col.FindOneAndDelete(ctx, bson.M{"id": id}).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &deleted, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*models.User, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

// Ping reports whether the backing database answers.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, nil)
}
