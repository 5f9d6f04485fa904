package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/audit"
	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// maxReportSizeBytes caps uploaded report documents at 100 MB.
const maxReportSizeBytes = 100 << 20

// ReportsService is the specialized interface for managing Reports and the
// documents behind them. It's decoupled from underlying technology choices
// (e.g. data store, blob storage) to keep business logic reusable and
// consistent while the underlying tech stack remains free to change.
type ReportsService interface {
	// Upload stores a new report document read from body and records its
	// metadata against the specified Project.
	Upload(
		ctx context.Context,
		projectID string,
		title string,
		filename string,
		contentType string,
		size int64,
		body io.Reader,
	) (Report, error)
	// List returns a ReportList scoped to one Project.
	List(
		ctx context.Context,
		selector ReportsSelector,
		opts meta.ListOptions,
	) (ReportList, error)
	// Get retrieves a single Report's metadata specified by its identifier.
	Get(ctx context.Context, id string) (Report, error)
	// Open retrieves a single Report's metadata along with a reader over its
	// document. The caller owns closing the reader.
	Open(ctx context.Context, id string) (Report, io.ReadCloser, error)
	// Delete removes a single Report and its document.
	Delete(ctx context.Context, id string) error
}

type reportsService struct {
	projectsStore ProjectsStore
	reportsStore  ReportsStore
	blobStore     BlobStore
	audits        audit.Sink
	logger        *zap.Logger
}

// NewReportsService returns a specialized interface for managing Reports.
func NewReportsService(
	projectsStore ProjectsStore,
	reportsStore ReportsStore,
	blobStore BlobStore,
	audits audit.Sink,
	logger *zap.Logger,
) ReportsService {
	return &reportsService{
		projectsStore: projectsStore,
		reportsStore:  reportsStore,
		blobStore:     blobStore,
		audits:        audits,
		logger:        logger,
	}
}

func (s *reportsService) authorizeProject(
	ctx context.Context,
	projectID string,
	authorize ProjectAuthorizeFn,
) error {
	project, err := s.projectsStore.Get(ctx, projectID)
	if err != nil {
		return errors.Wrapf(
			err,
			"error retrieving project %q from store",
			projectID,
		)
	}
	return authorize(ctx, project)
}

func (s *reportsService) Upload(
	ctx context.Context,
	projectID string,
	title string,
	filename string,
	contentType string,
	size int64,
	body io.Reader,
) (Report, error) {
	if filename == "" {
		return Report{}, &meta.ErrBadRequest{
			Reason: "A filename is required.",
		}
	}
	if size <= 0 {
		return Report{}, &meta.ErrBadRequest{
			Reason: "The request must declare the document's length.",
		}
	}
	if size > maxReportSizeBytes {
		return Report{}, &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The document exceeds the %d byte limit.",
				maxReportSizeBytes,
			),
		}
	}
	if err := s.authorizeProject(
		ctx,
		projectID,
		AuthorizeProjectWrite,
	); err != nil {
		return Report{}, err
	}
	if title == "" {
		title = filename
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	now := time.Now().UTC()
	report := Report{
		ObjectMeta: meta.ObjectMeta{
			ID:      uuid.NewV4().String(),
			Created: &now,
		},
		ProjectID:   projectID,
		Title:       title,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
	}
	report.StoragePath = fmt.Sprintf("reports/%s/%s", projectID, report.ID)
	if user, ok := authx.UserFromContext(ctx); ok {
		report.UploadedBy = user.ID
	}
	if err := s.blobStore.Put(
		ctx,
		report.StoragePath,
		contentType,
		io.LimitReader(body, maxReportSizeBytes),
	); err != nil {
		return Report{}, errors.Wrapf(
			err,
			"error storing document for new report %q",
			report.ID,
		)
	}
	if err := s.reportsStore.Create(ctx, report); err != nil {
		if blobErr := s.blobStore.Delete(
			ctx,
			report.StoragePath,
		); blobErr != nil {
			s.logger.Error(
				"error removing orphaned report document from blob storage",
				zap.String("storagePath", report.StoragePath),
				zap.Error(blobErr),
			)
		}
		return Report{},
			errors.Wrapf(err, "error storing new report %q", report.ID)
	}
	s.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionReportUpload,
		Target:  report.ID,
		Outcome: audit.OutcomeSuccess,
		Note:    filename,
	})
	return report, nil
}

func (s *reportsService) List(
	ctx context.Context,
	selector ReportsSelector,
	opts meta.ListOptions,
) (ReportList, error) {
	if selector.ProjectID == "" {
		return ReportList{}, &meta.ErrBadRequest{
			Reason: "A project ID is required.",
		}
	}
	if err := s.authorizeProject(
		ctx,
		selector.ProjectID,
		AuthorizeProjectRead,
	); err != nil {
		return ReportList{}, err
	}
	if opts.Limit == 0 {
		opts.Limit = 20
	}
	reports, err := s.reportsStore.List(ctx, selector, opts)
	if err != nil {
		return reports, errors.Wrapf(
			err,
			"error retrieving reports of project %q from store",
			selector.ProjectID,
		)
	}
	return reports, nil
}

func (s *reportsService) Get(ctx context.Context, id string) (Report, error) {
	report, err := s.reportsStore.Get(ctx, id)
	if err != nil {
		return report, errors.Wrapf(
			err,
			"error retrieving report %q from store",
			id,
		)
	}
	if err := s.authorizeProject(
		ctx,
		report.ProjectID,
		AuthorizeProjectRead,
	); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (s *reportsService) Open(
	ctx context.Context,
	id string,
) (Report, io.ReadCloser, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return Report{}, nil, err
	}
	document, err := s.blobStore.Open(ctx, report.StoragePath)
	if err != nil {
		return Report{}, nil, errors.Wrapf(
			err,
			"error opening document of report %q",
			id,
		)
	}
	s.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionReportDownload,
		Target:  id,
		Outcome: audit.OutcomeSuccess,
	})
	return report, document, nil
}

func (s *reportsService) Delete(ctx context.Context, id string) error {
	report, err := s.reportsStore.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "error retrieving report %q from store", id)
	}
	if err := s.authorizeProject(
		ctx,
		report.ProjectID,
		AuthorizeProjectWrite,
	); err != nil {
		return err
	}
	if err := s.reportsStore.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "error removing report %q from store", id)
	}
	if err := s.blobStore.Delete(ctx, report.StoragePath); err != nil {
		s.logger.Error(
			"error removing report document from blob storage",
			zap.String("report", id),
			zap.String("storagePath", report.StoragePath),
			zap.Error(err),
		)
	}
	return nil
}
