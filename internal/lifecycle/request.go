package lifecycle

import (
	"fmt"
	"time"

	"github.com/iliyamo/event-participation/internal/model"
)

// RequestTrigger is an input to the participation request state machine.
type RequestTrigger int

const (
	TriggerConfirm RequestTrigger = iota + 1
	TriggerReject
	TriggerCancel
)

// NextRequestStatus returns the status reached by applying t to current.
// Confirm and reject are only legal from PENDING.  Cancel is accepted from
// every status and is a no-op on an already canceled request.
func NextRequestStatus(current model.RequestStatus, t RequestTrigger) (model.RequestStatus, error) {
	switch t {
	case TriggerConfirm, TriggerReject:
		switch current {
		case model.RequestPending:
			if t == TriggerConfirm {
				return model.RequestConfirmed, nil
			}
			return model.RequestRejected, nil
		case model.RequestConfirmed, model.RequestRejected, model.RequestCanceled:
			return current, &Error{
				Kind:    KindConflict,
				Reason:  ReasonRequestNotPending,
				Message: fmt.Sprintf("request must have status PENDING, has %s", current),
			}
		}
	case TriggerCancel:
		switch current {
		case model.RequestPending, model.RequestConfirmed, model.RequestRejected, model.RequestCanceled:
			return model.RequestCanceled, nil
		}
	}
	return current, Validation(ReasonInvalidField, "status", fmt.Sprintf("unknown request status %q", current))
}

// InitialStatus applies the auto-confirm rule: a request starts CONFIRMED
// when the event has no moderation or no participant limit.
func InitialStatus(ev model.Event) model.RequestStatus {
	if !ev.RequestModeration || ev.Unlimited() {
		return model.RequestConfirmed
	}
	return model.RequestPending
}

// Eligibility is what the store knows about an event at the moment a
// request is submitted.  It must be read under the event lock.
type Eligibility struct {
	HasActiveRequest bool
	ConfirmedCount   int64
}

// NewRequest validates a submission against ev and returns the request to
// insert, already in its initial status.
func NewRequest(ev model.Event, requesterID uint64, el Eligibility, now time.Time) (model.ParticipationRequest, error) {
	if ev.InitiatorID == requesterID {
		return model.ParticipationRequest{}, Conflict(ReasonOwnerCannotRequestOwnEvent, ev.ID,
			"the initiator cannot request participation in their own event")
	}
	if ev.State != model.EventPublished {
		return model.ParticipationRequest{}, Conflict(ReasonEventNotPublished, ev.ID,
			"cannot participate in an unpublished event")
	}
	if el.HasActiveRequest {
		return model.ParticipationRequest{}, Conflict(ReasonDuplicateRequest, ev.ID,
			"an active request for this event already exists")
	}
	if remaining, limited := Remaining(ev.ParticipantLimit, el.ConfirmedCount); limited && remaining <= 0 {
		return model.ParticipationRequest{}, limitReached(ev.ID)
	}
	return model.ParticipationRequest{
		EventID:     ev.ID,
		RequesterID: requesterID,
		Created:     now.UTC(),
		Status:      InitialStatus(ev),
	}, nil
}

// CancelRequest returns req canceled.  changed is false when req was
// already canceled so callers can skip the write.
func CancelRequest(req model.ParticipationRequest) (next model.ParticipationRequest, changed bool) {
	status, err := NextRequestStatus(req.Status, TriggerCancel)
	if err != nil || status == req.Status {
		return req, false
	}
	req.Status = status
	return req, true
}

func limitReached(eventID uint64) *Error {
	return Conflict(ReasonParticipantLimitReached, eventID, "the participant limit has been reached")
}
