package domain

import "context"

// Outcome is what became of one inbound notification.
type Outcome string

const (
	OutcomeVerifiedCreated Outcome = "verified_created"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeRejected        Outcome = "rejected"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeUnverified      Outcome = "unverified"
	OutcomeMalformed       Outcome = "malformed"
	OutcomeFailed          Outcome = "failed"
	// OutcomeOversized is set by the HTTP layer; such bodies never reach the service.
	OutcomeOversized Outcome = "oversized"
)

type WebhookService interface {
	// IngestNotification processes one IPN body end to end. Only storage
	// faults are returned as errors; every other outcome is acknowledged.
	IngestNotification(ctx context.Context, rawBody []byte) (Outcome, error)
}
