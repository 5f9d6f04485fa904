package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const createIndexTimeout = 5 * time.Second

type projectsStore struct {
	collection *mongo.Collection
}

// NewProjectsStore returns a MongoDB-based implementation of the
// core.ProjectsStore interface.
func NewProjectsStore(database *mongo.Database) (core.ProjectsStore, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	collection := database.Collection("projects")
	if _, err := collection.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.M{
				"id": 1,
			},
			Options: &options.IndexOptions{
				Unique: &unique,
			},
		},
	); err != nil {
		return nil,
			errors.Wrap(err, "error adding indexes to projects collection")
	}
	return &projectsStore{
		collection: collection,
	}, nil
}

func (p *projectsStore) Create(
	ctx context.Context,
	project core.Project,
) error {
	if _, err := p.collection.InsertOne(ctx, project); err != nil {
		if writeException, ok := err.(mongo.WriteException); ok {
			if len(writeException.WriteErrors) == 1 &&
				writeException.WriteErrors[0].Code == 11000 {
				return &meta.ErrConflict{
					Type: "Project",
					ID:   project.ID,
					Reason: fmt.Sprintf(
						"A project with the ID %q already exists.",
						project.ID,
					),
				}
			}
		}
		return errors.Wrapf(err, "error inserting new project %q", project.ID)
	}
	return nil
}

func (p *projectsStore) list(
	ctx context.Context,
	criteria bson.M,
	opts meta.ListOptions,
) (core.ProjectList, error) {
	projects := core.ProjectList{}

	if opts.Continue != "" {
		criteria["id"] = bson.M{"$gt": opts.Continue}
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"id": 1})
	findOptions.SetLimit(opts.Limit)
	cur, err := p.collection.Find(ctx, criteria, findOptions)
	if err != nil {
		return projects, errors.Wrap(err, "error finding projects")
	}
	if err := cur.All(ctx, &projects.Items); err != nil {
		return projects, errors.Wrap(err, "error decoding projects")
	}

	if int64(len(projects.Items)) == opts.Limit {
		continueID := projects.Items[opts.Limit-1].ID
		criteria["id"] = bson.M{"$gt": continueID}
		remaining, err := p.collection.CountDocuments(ctx, criteria)
		if err != nil {
			return projects,
				errors.Wrap(err, "error counting remaining projects")
		}
		if remaining > 0 {
			projects.Continue = continueID
			projects.RemainingItemCount = remaining
		}
	}

	return projects, nil
}

func (p *projectsStore) List(
	ctx context.Context,
	opts meta.ListOptions,
) (core.ProjectList, error) {
	return p.list(ctx, bson.M{}, opts)
}

func (p *projectsStore) ListByMember(
	ctx context.Context,
	userID string,
	opts meta.ListOptions,
) (core.ProjectList, error) {
	return p.list(
		ctx,
		bson.M{
			"$or": []bson.M{
				{"clientIds": userID},
				{"pentesterIds": userID},
			},
		},
		opts,
	)
}

func (p *projectsStore) Get(
	ctx context.Context,
	id string,
) (core.Project, error) {
	project := core.Project{}
	res := p.collection.FindOne(ctx, bson.M{"id": id})
	if res.Err() == mongo.ErrNoDocuments {
		return project, &meta.ErrNotFound{
			Type: "Project",
			ID:   id,
		}
	}
	if res.Err() != nil {
		return project, errors.Wrapf(res.Err(), "error finding project %q", id)
	}
	if err := res.Decode(&project); err != nil {
		return project, errors.Wrapf(err, "error decoding project %q", id)
	}
	return project, nil
}

func (p *projectsStore) Update(
	ctx context.Context,
	project core.Project,
) error {
	res, err := p.collection.UpdateOne(
		ctx,
		bson.M{"id": project.ID},
		bson.M{
			"$set": bson.M{
				"name":        project.Name,
				"description": project.Description,
				"lastUpdated": time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating project %q", project.ID)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Project",
			ID:   project.ID,
		}
	}
	return nil
}

// amendRoster applies one membership mutation to the identified project.
func (p *projectsStore) amendRoster(
	ctx context.Context,
	projectID string,
	mutation bson.M,
) error {
	res, err := p.collection.UpdateOne(ctx, bson.M{"id": projectID}, mutation)
	if err != nil {
		return errors.Wrapf(err, "error updating project %q", projectID)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Project",
			ID:   projectID,
		}
	}
	return nil
}

func (p *projectsStore) AddClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return p.amendRoster(
		ctx,
		projectID,
		bson.M{"$addToSet": bson.M{"clientIds": userID}},
	)
}

func (p *projectsStore) RemoveClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return p.amendRoster(
		ctx,
		projectID,
		bson.M{"$pull": bson.M{"clientIds": userID}},
	)
}

func (p *projectsStore) AddPentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return p.amendRoster(
		ctx,
		projectID,
		bson.M{"$addToSet": bson.M{"pentesterIds": userID}},
	)
}

func (p *projectsStore) RemovePentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return p.amendRoster(
		ctx,
		projectID,
		bson.M{"$pull": bson.M{"pentesterIds": userID}},
	)
}

func (p *projectsStore) Delete(ctx context.Context, id string) error {
	res, err := p.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrapf(err, "error deleting project %q", id)
	}
	if res.DeletedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Project",
			ID:   id,
		}
	}
	return nil
}
