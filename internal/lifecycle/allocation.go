package lifecycle

import (
	"fmt"
	"sort"

	"github.com/iliyamo/event-participation/internal/model"
)

// Decision is the owner's verdict on a batch of pending requests.
type Decision string

const (
	DecisionConfirm Decision = "CONFIRMED"
	DecisionReject  Decision = "REJECTED"
)

// Ordering selects the order in which pending requests compete for the
// remaining slots.
type Ordering string

const (
	// OrderAsSupplied keeps the order the caller loaded the batch in; the
	// repositories load by ascending request id.
	OrderAsSupplied Ordering = "as_supplied"
	// OrderBySubmission orders by creation time, ties broken by id.
	OrderBySubmission Ordering = "submission"
)

// ParseOrdering maps a configuration value to an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(s) {
	case "", OrderAsSupplied:
		return OrderAsSupplied, nil
	case OrderBySubmission:
		return OrderBySubmission, nil
	}
	return "", fmt.Errorf("unknown allocation order %q", s)
}

// Allocation is the outcome of a decision.  Both slices keep the relative
// order of the input and carry the new status.
type Allocation struct {
	Confirmed []model.ParticipationRequest
	Rejected  []model.ParticipationRequest
}

// Allocator partitions pending requests against an event's capacity.  The
// zero value allocates in the order supplied.
type Allocator struct {
	Ordering Ordering
}

// Remaining returns the free slots left by limit once confirmed requests
// are counted.  limited is false for events without a participant limit.
func Remaining(limit int, confirmed int64) (remaining int64, limited bool) {
	if limit == 0 {
		return 0, false
	}
	return int64(limit) - confirmed, true
}

// Decide applies decision to requests of eventID.  Every request must be
// PENDING; the first one that is not aborts the whole batch before anything
// is labelled.
func (a Allocator) Decide(decision Decision, eventID uint64, limit int, confirmed int64, requests []model.ParticipationRequest) (Allocation, error) {
	for _, r := range requests {
		if r.Status != model.RequestPending {
			return Allocation{}, Conflict(ReasonRequestNotPending, r.ID,
				fmt.Sprintf("request must have status PENDING, has %s", r.Status))
		}
	}
	switch decision {
	case DecisionReject:
		out := Allocation{Rejected: make([]model.ParticipationRequest, 0, len(requests))}
		for _, r := range a.order(requests) {
			r.Status = model.RequestRejected
			out.Rejected = append(out.Rejected, r)
		}
		return out, nil
	case DecisionConfirm:
		return a.Allocate(eventID, limit, confirmed, requests)
	}
	return Allocation{}, Validation(ReasonInvalidField, "status", fmt.Sprintf("unknown decision %q", decision))
}

// Allocate confirms the first min(len(requests), remaining) requests and
// rejects the rest.  It fails without labelling anything when the event is
// already full.  Allocate is a pure function of its inputs.
func (a Allocator) Allocate(eventID uint64, limit int, confirmed int64, requests []model.ParticipationRequest) (Allocation, error) {
	ordered := a.order(requests)
	toConfirm := int64(len(ordered))
	if remaining, limited := Remaining(limit, confirmed); limited {
		if remaining <= 0 {
			return Allocation{}, limitReached(eventID)
		}
		if remaining < toConfirm {
			toConfirm = remaining
		}
	}

	out := Allocation{
		Confirmed: make([]model.ParticipationRequest, 0, toConfirm),
		Rejected:  make([]model.ParticipationRequest, 0, int64(len(ordered))-toConfirm),
	}
	for i, r := range ordered {
		if int64(i) < toConfirm {
			r.Status = model.RequestConfirmed
			out.Confirmed = append(out.Confirmed, r)
			continue
		}
		r.Status = model.RequestRejected
		out.Rejected = append(out.Rejected, r)
	}
	return out, nil
}

// order returns a copy of requests arranged per a.Ordering.
func (a Allocator) order(requests []model.ParticipationRequest) []model.ParticipationRequest {
	out := make([]model.ParticipationRequest, len(requests))
	copy(out, requests)
	if a.Ordering == OrderBySubmission {
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Created.Equal(out[j].Created) {
				return out[i].Created.Before(out[j].Created)
			}
			return out[i].ID < out[j].ID
		})
	}
	return out
}

// IDs returns the ids of requests in order.
func IDs(requests []model.ParticipationRequest) []uint64 {
	ids := make([]uint64, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	return ids
}

// CheckLimit reports whether ev's participant limit still admits the
// confirmed requests it already holds.  An unlimited event always does.
func CheckLimit(ev model.Event, confirmed int64) error {
	if remaining, limited := Remaining(ev.ParticipantLimit, confirmed); limited && remaining < 0 {
		return &Error{
			Kind:    KindConflict,
			Reason:  ReasonParticipantLimitReached,
			Field:   "participantLimit",
			ID:      ev.ID,
			Message: fmt.Sprintf("participant limit %d is below the %d confirmed requests", ev.ParticipantLimit, confirmed),
		}
	}
	return nil
}
