package service

import (
	"github.com/sirupsen/logrus"

	"github.com/soap-note-server/internal/domain"
)

// RequestGuard validates the inbound request before any other
// processing. It is a leaf component: no remote calls, no state.
type RequestGuard struct {
	logger *logrus.Logger
}

// NewRequestGuard creates a new request guard.
func NewRequestGuard(logger *logrus.Logger) *RequestGuard {
	return &RequestGuard{logger: logger}
}

// Validate confirms the caller is authenticated and the mandatory
// patient-data field is present. Identity is checked first: a request
// without a caller identity is rejected before the payload is even
// looked at. Validation failures are terminal for the request.
func (g *RequestGuard) Validate(callerUID string, req domain.NoteRequest) (*domain.ValidatedInput, error) {
	if callerUID == "" {
		g.logger.Warn("Unauthenticated request rejected")
		return nil, domain.NewUnauthenticated("You must be signed in to use this feature.")
	}

	if req.PatientInfo == "" {
		g.logger.WithField("uid", callerUID).Warn("Request rejected: missing patientInfo")
		return nil, domain.NewInvalidArgument("The request is missing 'patientInfo' (patient core data).")
	}

	// Audit record: caller only, never clinical payload content.
	g.logger.WithField("uid", callerUID).Info("Validated note generation request")

	return &domain.ValidatedInput{CallerUID: callerUID, NoteRequest: req}, nil
}
