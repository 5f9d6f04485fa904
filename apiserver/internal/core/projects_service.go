package core

import (
	"context"
	"fmt"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/audit"
	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// ProjectsService is the specialized interface for managing Projects. It's
// decoupled from underlying technology choices (e.g. data store) to keep
// business logic reusable and consistent while the underlying tech stack
// remains free to change.
type ProjectsService interface {
	// Create creates a new Project.
	Create(context.Context, Project) (Project, error)
	// List returns a ProjectList. Admins see every Project; everyone else
	// sees only Projects they are a member of.
	List(ctx context.Context, opts meta.ListOptions) (ProjectList, error)
	// Get retrieves a single Project specified by its identifier.
	Get(ctx context.Context, id string) (Project, error)
	// Update updates an existing Project's name and description.
	Update(context.Context, Project) (Project, error)
	// AddClient grants the specified user read access to the Project's
	// findings.
	AddClient(ctx context.Context, projectID, userID string) error
	// RemoveClient revokes the specified user's read access.
	RemoveClient(ctx context.Context, projectID, userID string) error
	// AddPentester adds the specified user to the Project's pentester roster.
	AddPentester(ctx context.Context, projectID, userID string) error
	// RemovePentester removes the specified user from the Project's pentester
	// roster.
	RemovePentester(ctx context.Context, projectID, userID string) error
	// Delete deletes a single Project specified by its identifier.
	Delete(ctx context.Context, id string) error
}

type projectsService struct {
	authorize            authx.AuthorizeFn
	projectsStore        ProjectsStore
	usersStore           authx.UsersStore
	vulnerabilitiesStore VulnerabilitiesStore
	reportsStore         ReportsStore
	blobStore            BlobStore
	audits               audit.Sink
	logger               *zap.Logger
}

// NewProjectsService returns a specialized interface for managing Projects.
func NewProjectsService(
	projectsStore ProjectsStore,
	usersStore authx.UsersStore,
	vulnerabilitiesStore VulnerabilitiesStore,
	reportsStore ReportsStore,
	blobStore BlobStore,
	audits audit.Sink,
	logger *zap.Logger,
) ProjectsService {
	return &projectsService{
		authorize:            authx.Authorize,
		projectsStore:        projectsStore,
		usersStore:           usersStore,
		vulnerabilitiesStore: vulnerabilitiesStore,
		reportsStore:         reportsStore,
		blobStore:            blobStore,
		audits:               audits,
		logger:               logger,
	}
}

func (p *projectsService) Create(
	ctx context.Context,
	project Project,
) (Project, error) {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return Project{}, err
	}
	if project.Name == "" {
		return Project{}, &meta.ErrBadRequest{
			Reason: "A project name is required.",
		}
	}
	now := time.Now().UTC()
	project.ObjectMeta = meta.ObjectMeta{
		ID:      uuid.NewV4().String(),
		Created: &now,
	}
	project.ClientIDs = nil
	project.PentesterIDs = nil
	if err := p.projectsStore.Create(ctx, project); err != nil {
		return Project{},
			errors.Wrapf(err, "error storing new project %q", project.ID)
	}
	return project, nil
}

func (p *projectsService) List(
	ctx context.Context,
	opts meta.ListOptions,
) (ProjectList, error) {
	user, ok := authx.UserFromContext(ctx)
	if !ok {
		return ProjectList{}, &meta.ErrAuthorization{}
	}
	if opts.Limit == 0 {
		opts.Limit = 20
	}
	if user.Role == authx.RoleAdmin {
		projects, err := p.projectsStore.List(ctx, opts)
		if err != nil {
			return projects, errors.Wrap(
				err,
				"error retrieving projects from store",
			)
		}
		return projects, nil
	}
	projects, err := p.projectsStore.ListByMember(ctx, user.ID, opts)
	if err != nil {
		return projects, errors.Wrapf(
			err,
			"error retrieving projects for member %q from store",
			user.ID,
		)
	}
	return projects, nil
}

func (p *projectsService) Get(
	ctx context.Context,
	id string,
) (Project, error) {
	project, err := p.projectsStore.Get(ctx, id)
	if err != nil {
		return project, errors.Wrapf(
			err,
			"error retrieving project %q from store",
			id,
		)
	}
	if err := AuthorizeProjectRead(ctx, project); err != nil {
		return Project{}, err
	}
	return project, nil
}

func (p *projectsService) Update(
	ctx context.Context,
	project Project,
) (Project, error) {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return Project{}, err
	}
	if project.Name == "" {
		return Project{}, &meta.ErrBadRequest{
			Reason: "A project name is required.",
		}
	}
	if err := p.projectsStore.Update(ctx, project); err != nil {
		return Project{},
			errors.Wrapf(err, "error updating project %q", project.ID)
	}
	updated, err := p.projectsStore.Get(ctx, project.ID)
	if err != nil {
		return Project{}, errors.Wrapf(
			err,
			"error retrieving project %q from store",
			project.ID,
		)
	}
	return updated, nil
}

// requireMemberRole asserts that the user being added to a roster exists,
// is active, and holds the role the roster is for.
func (p *projectsService) requireMemberRole(
	ctx context.Context,
	userID string,
	role authx.Role,
) error {
	user, err := p.usersStore.Get(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "error retrieving user %q from store", userID)
	}
	if !user.Active {
		return &meta.ErrBadRequest{
			Reason: fmt.Sprintf("The user %q has been deactivated.", userID),
		}
	}
	if user.Role != role {
		return &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The user %q does not hold the %q role.",
				userID,
				role,
			),
		}
	}
	return nil
}

func (p *projectsService) AddClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return err
	}
	if err := p.requireMemberRole(ctx, userID, authx.RoleClient); err != nil {
		return err
	}
	if err := p.projectsStore.AddClient(ctx, projectID, userID); err != nil {
		return errors.Wrapf(
			err,
			"error adding client %q to project %q",
			userID,
			projectID,
		)
	}
	p.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionProjectMembership,
		Target:  projectID,
		Outcome: audit.OutcomeSuccess,
		Note:    fmt.Sprintf("added client %s", userID),
	})
	return nil
}

func (p *projectsService) RemoveClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return err
	}
	if err := p.projectsStore.RemoveClient(ctx, projectID, userID); err != nil {
		return errors.Wrapf(
			err,
			"error removing client %q from project %q",
			userID,
			projectID,
		)
	}
	p.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionProjectMembership,
		Target:  projectID,
		Outcome: audit.OutcomeSuccess,
		Note:    fmt.Sprintf("removed client %s", userID),
	})
	return nil
}

func (p *projectsService) AddPentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return err
	}
	if err := p.requireMemberRole(
		ctx,
		userID,
		authx.RolePentester,
	); err != nil {
		return err
	}
	if err := p.projectsStore.AddPentester(ctx, projectID, userID); err != nil {
		return errors.Wrapf(
			err,
			"error adding pentester %q to project %q",
			userID,
			projectID,
		)
	}
	p.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionProjectMembership,
		Target:  projectID,
		Outcome: audit.OutcomeSuccess,
		Note:    fmt.Sprintf("added pentester %s", userID),
	})
	return nil
}

func (p *projectsService) RemovePentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return err
	}
	if err := p.projectsStore.RemovePentester(
		ctx,
		projectID,
		userID,
	); err != nil {
		return errors.Wrapf(
			err,
			"error removing pentester %q from project %q",
			userID,
			projectID,
		)
	}
	p.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionProjectMembership,
		Target:  projectID,
		Outcome: audit.OutcomeSuccess,
		Note:    fmt.Sprintf("removed pentester %s", userID),
	})
	return nil
}

func (p *projectsService) Delete(ctx context.Context, id string) error {
	if err := p.authorize(ctx, authx.RoleAdmin); err != nil {
		return err
	}
	if err := p.projectsStore.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "error removing project %q from store", id)
	}
	// The project record is already gone at this point. A failure anywhere
	// below can strand findings or blobs, never a half-deleted project.
	if err := p.vulnerabilitiesStore.DeleteByProject(ctx, id); err != nil {
		return errors.Wrapf(
			err,
			"error removing vulnerabilities of project %q from store",
			id,
		)
	}
	reports, err := p.reportsStore.DeleteByProject(ctx, id)
	if err != nil {
		return errors.Wrapf(
			err,
			"error removing reports of project %q from store",
			id,
		)
	}
	for _, report := range reports {
		if err := p.blobStore.Delete(ctx, report.StoragePath); err != nil {
			p.logger.Error(
				"error removing report document from blob storage",
				zap.String("report", report.ID),
				zap.String("storagePath", report.StoragePath),
				zap.Error(err),
			)
		}
	}
	return nil
}

func auditActor(ctx context.Context) string {
	if user, ok := authx.UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}
