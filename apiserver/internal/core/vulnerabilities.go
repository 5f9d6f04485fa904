package core

import (
	"context"
	"encoding/json"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// VulnerabilitySeverity expresses how bad a finding is.
type VulnerabilitySeverity string

const (
	SeverityCritical VulnerabilitySeverity = "critical"
	SeverityHigh     VulnerabilitySeverity = "high"
	SeverityMedium   VulnerabilitySeverity = "medium"
	SeverityLow      VulnerabilitySeverity = "low"
	SeverityInfo     VulnerabilitySeverity = "info"
)

// ValidSeverity indicates whether the specified VulnerabilitySeverity is one
// Matrix recognizes.
func ValidSeverity(severity VulnerabilitySeverity) bool {
	switch severity {
	case SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo:
		return true
	}
	return false
}

// VulnerabilityStatus expresses where a finding stands in its life cycle.
type VulnerabilityStatus string

const (
	StatusOpen      VulnerabilityStatus = "open"
	StatusConfirmed VulnerabilityStatus = "confirmed"
	StatusFixed     VulnerabilityStatus = "fixed"
	StatusAccepted  VulnerabilityStatus = "accepted"
)

// ValidStatus indicates whether the specified VulnerabilityStatus is one
// Matrix recognizes.
func ValidStatus(status VulnerabilityStatus) bool {
	switch status {
	case StatusOpen, StatusConfirmed, StatusFixed, StatusAccepted:
		return true
	}
	return false
}

// Vulnerability is a single finding recorded against a Project.
type Vulnerability struct {
	meta.ObjectMeta `json:"metadata" bson:",inline"`
	// ProjectID identifies the Project the finding was recorded against.
	ProjectID string `json:"projectId" bson:"projectId"`
	// Title is a short human-readable summary of the finding.
	Title string `json:"title" bson:"title"`
	// Description elaborates on the finding, including reproduction steps.
	Description string `json:"description,omitempty" bson:"description,omitempty"` // nolint: lll
	// Severity expresses how bad the finding is.
	Severity VulnerabilitySeverity `json:"severity" bson:"severity"`
	// Status expresses where the finding stands in its life cycle.
	Status VulnerabilityStatus `json:"status" bson:"status"`
	// CVSS is the finding's CVSS base score, when one has been computed.
	CVSS float64 `json:"cvss,omitempty" bson:"cvss,omitempty"`
	// CVE names the public CVE identifier the finding corresponds to, if any.
	CVE string `json:"cve,omitempty" bson:"cve,omitempty"`
	// ReportedBy identifies the user who recorded the finding.
	ReportedBy string `json:"reportedBy,omitempty" bson:"reportedBy,omitempty"` // nolint: lll
}

// MarshalJSON amends Vulnerability instances with type metadata so that
// clients do not need to be concerned with the tedium of doing so.
func (v Vulnerability) MarshalJSON() ([]byte, error) {
	type Alias Vulnerability
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "Vulnerability",
			},
			Alias: (Alias)(v),
		},
	)
}

// VulnerabilityList is an ordered and pageable list of Vulnerabilities.
type VulnerabilityList struct {
	// ListMeta contains list metadata.
	meta.ListMeta `json:"metadata"`
	// Items is a slice of Vulnerabilities.
	Items []Vulnerability `json:"items,omitempty"`
}

// MarshalJSON amends VulnerabilityList instances with type metadata so that
// clients do not need to be concerned with the tedium of doing so.
func (v VulnerabilityList) MarshalJSON() ([]byte, error) {
	type Alias VulnerabilityList
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "VulnerabilityList",
			},
			Alias: (Alias)(v),
		},
	)
}

// VulnerabilitiesSelector narrows which Vulnerabilities a List operation
// returns.
type VulnerabilitiesSelector struct {
	// ProjectID scopes the listing to one Project. Required.
	ProjectID string
	// Severity, when non-empty, keeps only findings of that severity.
	Severity VulnerabilitySeverity
	// Status, when non-empty, keeps only findings in that status.
	Status VulnerabilityStatus
}

// VulnerabilitiesStore is an interface for components that manage persistent
// Vulnerability records.
type VulnerabilitiesStore interface {
	Create(context.Context, Vulnerability) error
	List(
		ctx context.Context,
		selector VulnerabilitiesSelector,
		opts meta.ListOptions,
	) (VulnerabilityList, error)
	Get(ctx context.Context, id string) (Vulnerability, error)
	// Update replaces a finding's title, description, severity, CVSS score,
	// and CVE reference. Status moves through UpdateStatus.
	Update(context.Context, Vulnerability) error
	UpdateStatus(
		ctx context.Context,
		id string,
		status VulnerabilityStatus,
	) error
	Delete(ctx context.Context, id string) error
	// DeleteByProject removes every finding recorded against the specified
	// Project.
	DeleteByProject(ctx context.Context, projectID string) error
}
