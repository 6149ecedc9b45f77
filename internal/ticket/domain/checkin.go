package domain

import (
	"context"
	"errors"
)

// Replies shown to the door volunteer after scanning a ticket.
const (
	ReplyNotToday    = "Event is not today"
	ReplyAlreadyUsed = "Ticket already used"
	ReplyUpdated     = "Ticket updated to used"
)

// CheckInOutcome is a metric friendly label for the reply.
type CheckInOutcome string

const (
	OutcomeNotToday    CheckInOutcome = "not_today"
	OutcomeAlreadyUsed CheckInOutcome = "already_used"
	OutcomeUpdated     CheckInOutcome = "updated"
)

type CheckInResult struct {
	TicketID       string         `json:"ticket_id"`
	Title          string         `json:"title"`
	UpdateResponse string         `json:"update_response"`
	Outcome        CheckInOutcome `json:"-"`
}

type Service interface {
	// CheckIn redeems the ticket identified by its id or legacy numeric id.
	CheckIn(ctx context.Context, ref string) (CheckInResult, error)
}

var (
	ErrTicketNotFound    = errors.New("ticket_not_found")
	ErrEventDateNotFound = errors.New("event_date_not_found")
)
