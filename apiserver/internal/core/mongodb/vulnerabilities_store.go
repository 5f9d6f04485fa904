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

type vulnerabilitiesStore struct {
	collection *mongo.Collection
}

// NewVulnerabilitiesStore returns a MongoDB-based implementation of the
// core.VulnerabilitiesStore interface.
func NewVulnerabilitiesStore(
	database *mongo.Database,
) (core.VulnerabilitiesStore, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	collection := database.Collection("vulnerabilities")
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
		return nil, errors.Wrap(
			err,
			"error adding indexes to vulnerabilities collection",
		)
	}
	return &vulnerabilitiesStore{
		collection: collection,
	}, nil
}

func (v *vulnerabilitiesStore) Create(
	ctx context.Context,
	vulnerability core.Vulnerability,
) error {
	if _, err := v.collection.InsertOne(ctx, vulnerability); err != nil {
		if writeException, ok := err.(mongo.WriteException); ok {
			if len(writeException.WriteErrors) == 1 &&
				writeException.WriteErrors[0].Code == 11000 {
				return &meta.ErrConflict{
					Type: "Vulnerability",
					ID:   vulnerability.ID,
					Reason: fmt.Sprintf(
						"A vulnerability with the ID %q already exists.",
						vulnerability.ID,
					),
				}
			}
		}
		return errors.Wrapf(
			err,
			"error inserting new vulnerability %q",
			vulnerability.ID,
		)
	}
	return nil
}

func (v *vulnerabilitiesStore) List(
	ctx context.Context,
	selector core.VulnerabilitiesSelector,
	opts meta.ListOptions,
) (core.VulnerabilityList, error) {
	vulnerabilities := core.VulnerabilityList{}

	criteria := bson.M{
		"projectId": selector.ProjectID,
	}
	if selector.Severity != "" {
		criteria["severity"] = selector.Severity
	}
	if selector.Status != "" {
		criteria["status"] = selector.Status
	}
	if opts.Continue != "" {
		criteria["id"] = bson.M{"$gt": opts.Continue}
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"id": 1})
	findOptions.SetLimit(opts.Limit)
	cur, err := v.collection.Find(ctx, criteria, findOptions)
	if err != nil {
		return vulnerabilities, errors.Wrap(err, "error finding vulnerabilities")
	}
	if err := cur.All(ctx, &vulnerabilities.Items); err != nil {
		return vulnerabilities,
			errors.Wrap(err, "error decoding vulnerabilities")
	}

	if int64(len(vulnerabilities.Items)) == opts.Limit {
		continueID := vulnerabilities.Items[opts.Limit-1].ID
		criteria["id"] = bson.M{"$gt": continueID}
		remaining, err := v.collection.CountDocuments(ctx, criteria)
		if err != nil {
			return vulnerabilities,
				errors.Wrap(err, "error counting remaining vulnerabilities")
		}
		if remaining > 0 {
			vulnerabilities.Continue = continueID
			vulnerabilities.RemainingItemCount = remaining
		}
	}

	return vulnerabilities, nil
}

func (v *vulnerabilitiesStore) Get(
	ctx context.Context,
	id string,
) (core.Vulnerability, error) {
	vulnerability := core.Vulnerability{}
	res := v.collection.FindOne(ctx, bson.M{"id": id})
	if res.Err() == mongo.ErrNoDocuments {
		return vulnerability, &meta.ErrNotFound{
			Type: "Vulnerability",
			ID:   id,
		}
	}
	if res.Err() != nil {
		return vulnerability,
			errors.Wrapf(res.Err(), "error finding vulnerability %q", id)
	}
	if err := res.Decode(&vulnerability); err != nil {
		return vulnerability,
			errors.Wrapf(err, "error decoding vulnerability %q", id)
	}
	return vulnerability, nil
}

func (v *vulnerabilitiesStore) Update(
	ctx context.Context,
	vulnerability core.Vulnerability,
) error {
	res, err := v.collection.UpdateOne(
		ctx,
		bson.M{"id": vulnerability.ID},
		bson.M{
			"$set": bson.M{
				"title":       vulnerability.Title,
				"description": vulnerability.Description,
				"severity":    vulnerability.Severity,
				"cvss":        vulnerability.CVSS,
				"cve":         vulnerability.CVE,
				"lastUpdated": time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return errors.Wrapf(
			err,
			"error updating vulnerability %q",
			vulnerability.ID,
		)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Vulnerability",
			ID:   vulnerability.ID,
		}
	}
	return nil
}

func (v *vulnerabilitiesStore) UpdateStatus(
	ctx context.Context,
	id string,
	status core.VulnerabilityStatus,
) error {
	res, err := v.collection.UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{
			"$set": bson.M{
				"status":      status,
				"lastUpdated": time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return errors.Wrapf(
			err,
			"error updating status of vulnerability %q",
			id,
		)
	}
	if res.MatchedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Vulnerability",
			ID:   id,
		}
	}
	return nil
}

func (v *vulnerabilitiesStore) Delete(ctx context.Context, id string) error {
	res, err := v.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrapf(err, "error deleting vulnerability %q", id)
	}
	if res.DeletedCount == 0 {
		return &meta.ErrNotFound{
			Type: "Vulnerability",
			ID:   id,
		}
	}
	return nil
}

func (v *vulnerabilitiesStore) DeleteByProject(
	ctx context.Context,
	projectID string,
) error {
	if _, err := v.collection.DeleteMany(
		ctx,
		bson.M{"projectId": projectID},
	); err != nil {
		return errors.Wrapf(
			err,
			"error deleting vulnerabilities of project %q",
			projectID,
		)
	}
	return nil
}
