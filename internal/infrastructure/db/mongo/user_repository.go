package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

type userDoc struct {
	ID           int64  `bson:"_id"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"hashed_password"`
}

type UserRepository struct {
	coll *mongo.Collection
	ids  *IDGenerator
}

func NewUserRepository(db *mongo.Database, ids *IDGenerator) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), ids: ids}
}

// Create inserts the user and sets its generated id. Relies on the unique
// username index from EnsureIndexes.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{ID: r.ids.Next(), Username: user.Username, PasswordHash: user.PasswordHash}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = doc.ID
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.User{ID: doc.ID, Username: doc.Username, PasswordHash: doc.PasswordHash}, nil
}
