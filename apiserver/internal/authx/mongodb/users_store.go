package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const createIndexTimeout = 5 * time.Second

type usersStore struct {
	collection *mongo.Collection
}

// NewUsersStore returns a MongoDB-based implementation of the
// authx.UsersStore interface.
func NewUsersStore(database *mongo.Database) (authx.UsersStore, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	collection := database.Collection("users")
	if _, err := collection.Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.M{
					"id": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
				},
			},
			{
				Keys: bson.M{
					"username": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
					PartialFilterExpression: bson.M{
						"username": bson.M{"$exists": true},
					},
				},
			},
			{
				Keys: bson.M{
					"subject": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
					PartialFilterExpression: bson.M{
						"subject": bson.M{"$exists": true},
					},
				},
			},
		},
	); err != nil {
		return nil, errors.Wrap(err, "error adding indexes to users collection")
	}
	return &usersStore{
		collection: collection,
	}, nil
}

func (u *usersStore) Create(ctx context.Context, user authx.User) error {
	if _, err :=
		u.collection.InsertOne(ctx, user); err != nil {
		if writeException, ok := err.(mongo.WriteException); ok {
			if len(writeException.WriteErrors) == 1 &&
				writeException.WriteErrors[0].Code == 11000 {
				return &meta.ErrConflict{
					Type: "User",
					ID:   user.ID,
					Reason: fmt.Sprintf(
						"A user with the ID %q or username %q already exists.",
						user.ID,
						user.Username,
					),
				}
			}
		}
		return errors.Wrapf(err, "error inserting new user %q", user.ID)
	}
	return nil
}

func (u *usersStore) CountByRole(
	ctx context.Context,
	role authx.Role,
	activeOnly bool,
) (int64, error) {
	criteria := bson.M{"role": role}
	if activeOnly {
		criteria["active"] = true
	}
	count, err := u.collection.CountDocuments(ctx, criteria)
	if err != nil {
		return 0, errors.Wrapf(err, "error counting users with role %q", role)
	}
	return count, nil
}

func (u *usersStore) List(
	ctx context.Context,
	opts meta.ListOptions,
) (authx.UserList, error) {
	users := authx.UserList{}

	criteria := bson.M{}
	if opts.Continue != "" {
		criteria["id"] = bson.M{"$gt": opts.Continue}
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"id": 1})
	findOptions.SetLimit(opts.Limit)
	cur, err := u.collection.Find(ctx, criteria, findOptions)
	if err != nil {
		return users, errors.Wrap(err, "error finding users")
	}
	if err := cur.All(ctx, &users.Items); err != nil {
		return users, errors.Wrap(err, "error decoding users")
	}

	if int64(len(users.Items)) == opts.Limit {
		continueID := users.Items[opts.Limit-1].ID
		criteria["id"] = bson.M{"$gt": continueID}
		remaining, err := u.collection.CountDocuments(ctx, criteria)
		if err != nil {
			return users, errors.Wrap(err, "error counting remaining users")
		}
		if remaining > 0 {
			users.Continue = continueID
			users.RemainingItemCount = remaining
		}
	}

	return users, nil
}

func (u *usersStore) Get(
	ctx context.Context,
	id string,
) (authx.User, error) {
	user := authx.User{}
	res := u.collection.FindOne(ctx, bson.M{"id": id})
	if res.Err() == mongo.ErrNoDocuments {
		return user, &meta.ErrNotFound{
			Type: "User",
			ID:   id,
		}
	}
	if res.Err() != nil {
		return user, errors.Wrapf(res.Err(), "error finding user %q", id)
	}
	if err := res.Decode(&user); err != nil {
		return user, errors.Wrapf(err, "error decoding user %q", id)
	}
	return user, nil
}

func (u *usersStore) GetByUsername(
	ctx context.Context,
	username string,
) (authx.User, error) {
	user := authx.User{}
	res := u.collection.FindOne(ctx, bson.M{"username": username})
	if res.Err() == mongo.ErrNoDocuments {
		return user, &meta.ErrNotFound{
			Type: "User",
			ID:   username,
		}
	}
	if res.Err() != nil {
		return user,
			errors.Wrapf(res.Err(), "error finding user with username %q", username)
	}
	if err := res.Decode(&user); err != nil {
		return user,
			errors.Wrapf(err, "error decoding user with username %q", username)
	}
	return user, nil
}

func (u *usersStore) GetBySubject(
	ctx context.Context,
	subject string,
) (authx.User, error) {
	user := authx.User{}
	res := u.collection.FindOne(ctx, bson.M{"subject": subject})
	if res.Err() == mongo.ErrNoDocuments {
		return user, &meta.ErrNotFound{
			Type: "User",
			ID:   subject,
		}
	}
	if res.Err() != nil {
		return user,
			errors.Wrapf(res.Err(), "error finding user with subject %q", subject)
	}
	if err := res.Decode(&user); err != nil {
		return user,
			errors.Wrapf(err, "error decoding user with subject %q", subject)
	}
	return user, nil
}

func (u *usersStore) Update(ctx context.Context, user authx.User) error {
	res, err := u.collection.UpdateOne(
		ctx,
		bson.M{"id": user.ID},
		bson.M{
			"$set": bson.M{
				"email":       user.Email,
				"firstName":   user.FirstName,
				"lastName":    user.LastName,
				"picture":     user.Picture,
				"lastUpdated": time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating user %q", user.ID)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "User",
			ID:   user.ID,
		}
	}
	return nil
}

func (u *usersStore) UpdateRole(
	ctx context.Context,
	id string,
	role authx.Role,
) error {
	res, err := u.collection.UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{
			"$set": bson.M{
				"role":        role,
				"lastUpdated": time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating role of user %q", id)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "User",
			ID:   id,
		}
	}
	return nil
}

func (u *usersStore) SetActive(
	ctx context.Context,
	id string,
	active bool,
) error {
	res, err := u.collection.UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{
			"$set": bson.M{
				"active":      active,
				"lastUpdated": time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating user %q", id)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "User",
			ID:   id,
		}
	}
	return nil
}

func (u *usersStore) Delete(ctx context.Context, id string) error {
	res, err := u.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrapf(err, "error deleting user %q", id)
	}
	if res.DeletedCount == 0 {
		return &meta.ErrNotFound{
			Type: "User",
			ID:   id,
		}
	}
	return nil
}
