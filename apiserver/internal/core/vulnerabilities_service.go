package core

import (
	"context"
	"fmt"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// VulnerabilitiesService is the specialized interface for managing
// Vulnerabilities. It's decoupled from underlying technology choices (e.g.
// data store) to keep business logic reusable and consistent while the
// underlying tech stack remains free to change.
type VulnerabilitiesService interface {
	// Create records a new finding against the Project named in it.
	Create(context.Context, Vulnerability) (Vulnerability, error)
	// List returns a VulnerabilityList scoped to one Project, optionally
	// narrowed by severity and status.
	List(
		ctx context.Context,
		selector VulnerabilitiesSelector,
		opts meta.ListOptions,
	) (VulnerabilityList, error)
	// Get retrieves a single finding specified by its identifier.
	Get(ctx context.Context, id string) (Vulnerability, error)
	// Update amends an existing finding's details.
	Update(context.Context, Vulnerability) (Vulnerability, error)
	// UpdateStatus moves a finding to the specified status.
	UpdateStatus(
		ctx context.Context,
		id string,
		status VulnerabilityStatus,
	) error
	// Delete removes a single finding specified by its identifier.
	Delete(ctx context.Context, id string) error
}

type vulnerabilitiesService struct {
	projectsStore        ProjectsStore
	vulnerabilitiesStore VulnerabilitiesStore
}

// NewVulnerabilitiesService returns a specialized interface for managing
// Vulnerabilities.
func NewVulnerabilitiesService(
	projectsStore ProjectsStore,
	vulnerabilitiesStore VulnerabilitiesStore,
) VulnerabilitiesService {
	return &vulnerabilitiesService{
		projectsStore:        projectsStore,
		vulnerabilitiesStore: vulnerabilitiesStore,
	}
}

// authorizeProject retrieves the named Project and asserts the current user
// may read it or write to it.
func (v *vulnerabilitiesService) authorizeProject(
	ctx context.Context,
	projectID string,
	authorize ProjectAuthorizeFn,
) error {
	project, err := v.projectsStore.Get(ctx, projectID)
	if err != nil {
		return errors.Wrapf(
			err,
			"error retrieving project %q from store",
			projectID,
		)
	}
	return authorize(ctx, project)
}

func validateVulnerability(vulnerability Vulnerability) error {
	if vulnerability.ProjectID == "" {
		return &meta.ErrBadRequest{
			Reason: "A project ID is required.",
		}
	}
	if vulnerability.Title == "" {
		return &meta.ErrBadRequest{
			Reason: "A title is required.",
		}
	}
	if !ValidSeverity(vulnerability.Severity) {
		return &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The severity %q is not recognized.",
				vulnerability.Severity,
			),
		}
	}
	if vulnerability.CVSS < 0 || vulnerability.CVSS > 10 {
		return &meta.ErrBadRequest{
			Reason: "The CVSS score must be between 0.0 and 10.0.",
		}
	}
	return nil
}

func (v *vulnerabilitiesService) Create(
	ctx context.Context,
	vulnerability Vulnerability,
) (Vulnerability, error) {
	if err := validateVulnerability(vulnerability); err != nil {
		return Vulnerability{}, err
	}
	if err := v.authorizeProject(
		ctx,
		vulnerability.ProjectID,
		AuthorizeProjectWrite,
	); err != nil {
		return Vulnerability{}, err
	}
	now := time.Now().UTC()
	vulnerability.ObjectMeta = meta.ObjectMeta{
		ID:      uuid.NewV4().String(),
		Created: &now,
	}
	if vulnerability.Status == "" {
		vulnerability.Status = StatusOpen
	} else if !ValidStatus(vulnerability.Status) {
		return Vulnerability{}, &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The status %q is not recognized.",
				vulnerability.Status,
			),
		}
	}
	if user, ok := authx.UserFromContext(ctx); ok {
		vulnerability.ReportedBy = user.ID
	}
	if err := v.vulnerabilitiesStore.Create(ctx, vulnerability); err != nil {
		return Vulnerability{}, errors.Wrapf(
			err,
			"error storing new vulnerability %q",
			vulnerability.ID,
		)
	}
	return vulnerability, nil
}

func (v *vulnerabilitiesService) List(
	ctx context.Context,
	selector VulnerabilitiesSelector,
	opts meta.ListOptions,
) (VulnerabilityList, error) {
	if selector.ProjectID == "" {
		return VulnerabilityList{}, &meta.ErrBadRequest{
			Reason: "A project ID is required.",
		}
	}
	if selector.Severity != "" && !ValidSeverity(selector.Severity) {
		return VulnerabilityList{}, &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The severity %q is not recognized.",
				selector.Severity,
			),
		}
	}
	if selector.Status != "" && !ValidStatus(selector.Status) {
		return VulnerabilityList{}, &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The status %q is not recognized.",
				selector.Status,
			),
		}
	}
	if err := v.authorizeProject(
		ctx,
		selector.ProjectID,
		AuthorizeProjectRead,
	); err != nil {
		return VulnerabilityList{}, err
	}
	if opts.Limit == 0 {
		opts.Limit = 20
	}
	vulnerabilities, err := v.vulnerabilitiesStore.List(ctx, selector, opts)
	if err != nil {
		return vulnerabilities, errors.Wrapf(
			err,
			"error retrieving vulnerabilities of project %q from store",
			selector.ProjectID,
		)
	}
	return vulnerabilities, nil
}

func (v *vulnerabilitiesService) Get(
	ctx context.Context,
	id string,
) (Vulnerability, error) {
	vulnerability, err := v.vulnerabilitiesStore.Get(ctx, id)
	if err != nil {
		return vulnerability, errors.Wrapf(
			err,
			"error retrieving vulnerability %q from store",
			id,
		)
	}
	if err := v.authorizeProject(
		ctx,
		vulnerability.ProjectID,
		AuthorizeProjectRead,
	); err != nil {
		return Vulnerability{}, err
	}
	return vulnerability, nil
}

func (v *vulnerabilitiesService) Update(
	ctx context.Context,
	vulnerability Vulnerability,
) (Vulnerability, error) {
	existing, err := v.vulnerabilitiesStore.Get(ctx, vulnerability.ID)
	if err != nil {
		return Vulnerability{}, errors.Wrapf(
			err,
			"error retrieving vulnerability %q from store",
			vulnerability.ID,
		)
	}
	// Findings never move between projects.
	vulnerability.ProjectID = existing.ProjectID
	if err := validateVulnerability(vulnerability); err != nil {
		return Vulnerability{}, err
	}
	if err := v.authorizeProject(
		ctx,
		existing.ProjectID,
		AuthorizeProjectWrite,
	); err != nil {
		return Vulnerability{}, err
	}
	if err := v.vulnerabilitiesStore.Update(ctx, vulnerability); err != nil {
		return Vulnerability{}, errors.Wrapf(
			err,
			"error updating vulnerability %q",
			vulnerability.ID,
		)
	}
	updated, err := v.vulnerabilitiesStore.Get(ctx, vulnerability.ID)
	if err != nil {
		return Vulnerability{}, errors.Wrapf(
			err,
			"error retrieving vulnerability %q from store",
			vulnerability.ID,
		)
	}
	return updated, nil
}

func (v *vulnerabilitiesService) UpdateStatus(
	ctx context.Context,
	id string,
	status VulnerabilityStatus,
) error {
	if !ValidStatus(status) {
		return &meta.ErrBadRequest{
			Reason: fmt.Sprintf("The status %q is not recognized.", status),
		}
	}
	vulnerability, err := v.vulnerabilitiesStore.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(
			err,
			"error retrieving vulnerability %q from store",
			id,
		)
	}
	if err := v.authorizeProject(
		ctx,
		vulnerability.ProjectID,
		AuthorizeProjectWrite,
	); err != nil {
		return err
	}
	if err := v.vulnerabilitiesStore.UpdateStatus(ctx, id, status); err != nil {
		return errors.Wrapf(
			err,
			"error updating status of vulnerability %q",
			id,
		)
	}
	return nil
}

func (v *vulnerabilitiesService) Delete(ctx context.Context, id string) error {
	vulnerability, err := v.vulnerabilitiesStore.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(
			err,
			"error retrieving vulnerability %q from store",
			id,
		)
	}
	if err := v.authorizeProject(
		ctx,
		vulnerability.ProjectID,
		AuthorizeProjectWrite,
	); err != nil {
		return err
	}
	if err := v.vulnerabilitiesStore.Delete(ctx, id); err != nil {
		return errors.Wrapf(
			err,
			"error removing vulnerability %q from store",
			id,
		)
	}
	return nil
}
