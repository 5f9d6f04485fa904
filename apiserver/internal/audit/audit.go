package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Actions recorded by the authentication and user-management subsystems.
const (
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionTokenRefresh      = "token.refresh"
	ActionUserCreate        = "user.create"
	ActionUserUpdate        = "user.update"
	ActionUserRoleUpdate    = "user.role.update"
	ActionUserActivate      = "user.activate"
	ActionUserDeactivate    = "user.deactivate"
	ActionUserDelete        = "user.delete"
	ActionProjectMembership = "project.membership"
	ActionReportUpload      = "report.upload"
	ActionReportDownload    = "report.download"
)

// Outcomes recorded with each event.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)

// Event describes one security-relevant occurrence.
type Event struct {
	// Time indicates when the event occurred. When left unset, the sink fills
	// it in at recording time.
	Time time.Time
	// Actor identifies who caused the event. For failed authentication
	// attempts, this may be a claimed (unverified) identity.
	Actor string
	// Action identifies what happened.
	Action string
	// Target identifies the resource acted upon, if any.
	Target string
	// Outcome indicates whether the action succeeded, failed, or was denied.
	Outcome string
	// Note optionally adds human-readable detail.
	Note string
}

// Sink is an interface for components that record audit events. Recording is
// strictly write-only and best-effort. A Sink never reports failure to its
// caller so that audit problems cannot break request handling.
type Sink interface {
	// Record records one audit event.
	Record(ctx context.Context, event Event)
}

type zapSink struct {
	logger *zap.Logger
}

// NewZapSink returns a Sink that emits audit events through the provided
// structured logger.
func NewZapSink(logger *zap.Logger) Sink {
	return &zapSink{
		logger: logger.Named("audit"),
	}
}

func (z *zapSink) Record(_ context.Context, event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	z.logger.Info(
		event.Action,
		zap.Time("time", event.Time),
		zap.String("actor", event.Actor),
		zap.String("target", event.Target),
		zap.String("outcome", event.Outcome),
		zap.String("note", event.Note),
	)
}
