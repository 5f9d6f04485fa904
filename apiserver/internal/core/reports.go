package core

import (
	"context"
	"encoding/json"
	"io"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// Report is an uploaded assessment document attached to a Project. The
// document's bytes live in blob storage; Matrix keeps only this metadata.
type Report struct {
	meta.ObjectMeta `json:"metadata" bson:",inline"`
	// ProjectID identifies the Project the Report belongs to.
	ProjectID string `json:"projectId" bson:"projectId"`
	// Title is a short human-readable name for the Report.
	Title string `json:"title" bson:"title"`
	// Filename is the name the document was uploaded under.
	Filename string `json:"filename" bson:"filename"`
	// ContentType is the document's MIME type.
	ContentType string `json:"contentType" bson:"contentType"`
	// SizeBytes is the document's size.
	SizeBytes int64 `json:"sizeBytes" bson:"sizeBytes"`
	// StoragePath locates the document in blob storage.
	StoragePath string `json:"-" bson:"storagePath"`
	// UploadedBy identifies the user who uploaded the document.
	UploadedBy string `json:"uploadedBy,omitempty" bson:"uploadedBy,omitempty"` // nolint: lll
}

// MarshalJSON amends Report instances with type metadata so that clients do
// not need to be concerned with the tedium of doing so.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "Report",
			},
			Alias: (Alias)(r),
		},
	)
}

// ReportList is an ordered and pageable list of Reports.
type ReportList struct {
	// ListMeta contains list metadata.
	meta.ListMeta `json:"metadata"`
	// Items is a slice of Reports.
	Items []Report `json:"items,omitempty"`
}

// MarshalJSON amends ReportList instances with type metadata so that clients
// do not need to be concerned with the tedium of doing so.
func (r ReportList) MarshalJSON() ([]byte, error) {
	type Alias ReportList
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "ReportList",
			},
			Alias: (Alias)(r),
		},
	)
}

// ReportsSelector narrows which Reports a List operation returns.
type ReportsSelector struct {
	// ProjectID scopes the listing to one Project. Required.
	ProjectID string
}

// ReportsStore is an interface for components that manage persistent Report
// metadata.
type ReportsStore interface {
	Create(context.Context, Report) error
	List(
		ctx context.Context,
		selector ReportsSelector,
		opts meta.ListOptions,
	) (ReportList, error)
	Get(ctx context.Context, id string) (Report, error)
	Delete(ctx context.Context, id string) error
	// DeleteByProject removes every Report belonging to the specified
	// Project, returning the removed records so their documents can be
	// cleaned out of blob storage.
	DeleteByProject(ctx context.Context, projectID string) ([]Report, error)
}

// BlobStore is an interface for components that hold report documents
// themselves, keyed by storage path.
type BlobStore interface {
	// Put stores the bytes read from body under the specified key.
	Put(
		ctx context.Context,
		key string,
		contentType string,
		body io.Reader,
	) error
	// Open returns a reader over the bytes stored under the specified key.
	// The caller owns closing it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the bytes stored under the specified key.
	Delete(ctx context.Context, key string) error
}
