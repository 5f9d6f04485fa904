package s3

import (
	"context"
	"io"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

type blobStore struct {
	client *awss3.Client
	bucket string
}

// NewBlobStore returns an S3-based implementation of the core.BlobStore
// interface. It works against AWS itself or anything speaking the S3
// protocol, MinIO included.
func NewBlobStore(client *awss3.Client, bucket string) core.BlobStore {
	return &blobStore{
		client: client,
		bucket: bucket,
	}
}

func (b *blobStore) Put(
	ctx context.Context,
	key string,
	contentType string,
	body io.Reader,
) error {
	if _, err := b.client.PutObject(
		ctx,
		&awss3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(key),
			Body:        body,
			ContentType: aws.String(contentType),
		},
	); err != nil {
		return errors.Wrapf(err, "error storing object %q", key)
	}
	return nil
}

func (b *blobStore) Open(
	ctx context.Context,
	key string,
) (io.ReadCloser, error) {
	res, err := b.client.GetObject(
		ctx,
		&awss3.GetObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		},
	)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, &meta.ErrNotFound{
				Type: "ReportDocument",
				ID:   key,
			}
		}
		return nil, errors.Wrapf(err, "error retrieving object %q", key)
	}
	return res.Body, nil
}

func (b *blobStore) Delete(ctx context.Context, key string) error {
	if _, err := b.client.DeleteObject(
		ctx,
		&awss3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		},
	); err != nil {
		return errors.Wrapf(err, "error deleting object %q", key)
	}
	return nil
}
