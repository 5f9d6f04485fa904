package mongodb

import (
	"context"
	"fmt"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reportsStore struct {
	collection *mongo.Collection
}

// NewReportsStore returns a MongoDB-based implementation of the
// core.ReportsStore interface.
func NewReportsStore(database *mongo.Database) (core.ReportsStore, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	collection := database.Collection("reports")
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
					"projectId": 1,
				},
			},
		},
	); err != nil {
		return nil, errors.Wrap(err, "error adding indexes to reports collection")
	}
	return &reportsStore{
		collection: collection,
	}, nil
}

func (r *reportsStore) Create(ctx context.Context, report core.Report) error {
	if _, err := r.collection.InsertOne(ctx, report); err != nil {
		if writeException, ok := err.(mongo.WriteException); ok {
			if len(writeException.WriteErrors) == 1 &&
				writeException.WriteErrors[0].Code == 11000 {
				return &meta.ErrConflict{
					Type: "Report",
					ID:   report.ID,
					Reason: fmt.Sprintf(
						"A report with the ID %q already exists.",
						report.ID,
					),
				}
			}
		}
		return errors.Wrapf(err, "error inserting new report %q", report.ID)
	}
	return nil
}

func (r *reportsStore) List(
	ctx context.Context,
	selector core.ReportsSelector,
	opts meta.ListOptions,
) (core.ReportList, error) {
	reports := core.ReportList{}

	criteria := bson.M{
		"projectId": selector.ProjectID,
	}
	if opts.Continue != "" {
		criteria["id"] = bson.M{"$gt": opts.Continue}
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"id": 1})
	findOptions.SetLimit(opts.Limit)
	cur, err := r.collection.Find(ctx, criteria, findOptions)
	if err != nil {
		return reports, errors.Wrap(err, "error finding reports")
	}
	if err := cur.All(ctx, &reports.Items); err != nil {
		return reports, errors.Wrap(err, "error decoding reports")
	}

	if int64(len(reports.Items)) == opts.Limit {
		continueID := reports.Items[opts.Limit-1].ID
		criteria["id"] = bson.M{"$gt": continueID}
		remaining, err := r.collection.CountDocuments(ctx, criteria)
		if err != nil {
			return reports, errors.Wrap(err, "error counting remaining reports")
		}
		if remaining > 0 {
			reports.Continue = continueID
			reports.RemainingItemCount = remaining
		}
	}

	return reports, nil
}

func (r *reportsStore) Get(
	ctx context.Context,
	id string,
) (core.Report, error) {
	report := core.Report{}
	res := r.collection.FindOne(ctx, bson.M{"id": id})
	if res.Err() == mongo.ErrNoDocuments {
		return report, &meta.ErrNotFound{
			Type: "Report",
			ID:   id,
		}
	}
	if res.Err() != nil {
		return report, errors.Wrapf(res.Err(), "error finding report %q", id)
	}
	if err := res.Decode(&report); err != nil {
		return report, errors.Wrapf(err, "error decoding report %q", id)
	}
	return report, nil
}

func (r *reportsStore) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrapf(err, "error deleting report %q", id)
	}
	if res.DeletedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Report",
			ID:   id,
		}
	}
	return nil
}

func (r *reportsStore) DeleteByProject(
	ctx context.Context,
	projectID string,
) ([]core.Report, error) {
	criteria := bson.M{"projectId": projectID}
	cur, err := r.collection.Find(ctx, criteria)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error finding reports of project %q",
			projectID,
		)
	}
	reports := []core.Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, errors.Wrapf(
			err,
			"error decoding reports of project %q",
			projectID,
		)
	}
	if _, err := r.collection.DeleteMany(ctx, criteria); err != nil {
		return nil, errors.Wrapf(
			err,
			"error deleting reports of project %q",
			projectID,
		)
	}
	return reports, nil
}
