package core

import (
	"context"
	"encoding/json"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// Project is an engagement under assessment: one target system or scope,
// the pentesters working it, and the clients entitled to see the findings.
type Project struct {
	meta.ObjectMeta `json:"metadata" bson:",inline"`
	// Name is a short human-readable name for the Project.
	Name string `json:"name" bson:"name"`
	// Description optionally elaborates on the engagement's scope.
	Description string `json:"description,omitempty" bson:"description,omitempty"` // nolint: lll
	// ClientIDs enumerates users with read access to the Project's findings.
	ClientIDs []string `json:"clientIds,omitempty" bson:"clientIds,omitempty"`
	// PentesterIDs enumerates users who record findings on the Project.
	PentesterIDs []string `json:"pentesterIds,omitempty" bson:"pentesterIds,omitempty"` // nolint: lll
}

// MarshalJSON amends Project instances with type metadata so that clients do
// not need to be concerned with the tedium of doing so.
func (p Project) MarshalJSON() ([]byte, error) {
	type Alias Project
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "Project",
			},
			Alias: (Alias)(p),
		},
	)
}

// HasClient indicates whether the specified user is among the Project's
// clients.
func (p Project) HasClient(userID string) bool {
	for _, id := range p.ClientIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasPentester indicates whether the specified user is among the Project's
// pentesters.
func (p Project) HasPentester(userID string) bool {
	for _, id := range p.PentesterIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ProjectList is an ordered and pageable list of Projects.
type ProjectList struct {
	// ListMeta contains list metadata.
	meta.ListMeta `json:"metadata"`
	// Items is a slice of Projects.
	Items []Project `json:"items,omitempty"`
}

// MarshalJSON amends ProjectList instances with type metadata so that
// clients do not need to be concerned with the tedium of doing so.
func (p ProjectList) MarshalJSON() ([]byte, error) {
	type Alias ProjectList
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "ProjectList",
			},
			Alias: (Alias)(p),
		},
	)
}

// ProjectsStore is an interface for components that manage persistent
// Project records.
type ProjectsStore interface {
	Create(context.Context, Project) error
	List(context.Context, meta.ListOptions) (ProjectList, error)
	// ListByMember returns only Projects whose client or pentester rosters
	// include the specified user.
	ListByMember(
		ctx context.Context,
		userID string,
		opts meta.ListOptions,
	) (ProjectList, error)
	Get(ctx context.Context, id string) (Project, error)
	// Update replaces a Project's name and description. Membership is managed
	// through dedicated operations.
	Update(context.Context, Project) error
	AddClient(ctx context.Context, projectID, userID string) error
	RemoveClient(ctx context.Context, projectID, userID string) error
	AddPentester(ctx context.Context, projectID, userID string) error
	RemovePentester(ctx context.Context, projectID, userID string) error
	Delete(ctx context.Context, id string) error
}
