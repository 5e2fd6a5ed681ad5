package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-participation/internal/model"
)

const (
	// MinLeadTime is how far in the future an event must be scheduled when
	// the owner creates it or moves its date.
	MinLeadTime = 2 * time.Hour
	// PublishLeadTime is the minimum gap between publication and the event.
	PublishLeadTime = time.Hour
)

// Actor identifies who requests an event transition.
type Actor int

const (
	ActorOwner Actor = iota + 1
	ActorAdmin
)

// NewEventInput carries the fields required to create an event.
type NewEventInput struct {
	CategoryID        uint64
	Title             string
	Annotation        string
	Description       string
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	Location          model.Location
}

// EventFields is a partial update.  Nil fields are left untouched.
type EventFields struct {
	CategoryID        *uint64
	Title             *string
	Annotation        *string
	Description       *string
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	Location          *model.Location
}

// NewEvent builds a PENDING event owned by ownerID.
func NewEvent(ownerID uint64, in NewEventInput, now time.Time) (model.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Event{}, Validation(ReasonInvalidField, "title", "title must not be blank")
	}
	if in.ParticipantLimit < 0 {
		return model.Event{}, Validation(ReasonInvalidField, "participantLimit", "participant limit must not be negative")
	}
	if err := checkLeadTime(in.EventDate, now); err != nil {
		return model.Event{}, err
	}
	return model.Event{
		InitiatorID:       ownerID,
		CategoryID:        in.CategoryID,
		Title:             title,
		Annotation:        strings.TrimSpace(in.Annotation),
		Description:       strings.TrimSpace(in.Description),
		EventDate:         in.EventDate.UTC(),
		CreatedOn:         now.UTC(),
		Paid:              in.Paid,
		ParticipantLimit:  in.ParticipantLimit,
		RequestModeration: in.RequestModeration,
		Location:          in.Location,
		State:             model.EventPending,
	}, nil
}

// NextEventState returns the state reached by applying action to current on
// behalf of actor.  It does not touch PublishedOn; callers that reach
// PUBLISHED stamp it themselves.
func NextEventState(current model.EventState, action model.StateAction, actor Actor) (model.EventState, error) {
	switch action {
	case model.ActionSendToReview, model.ActionCancelReview:
		if actor != ActorOwner {
			return current, Validation(ReasonInvalidField, "stateAction", fmt.Sprintf("%s is reserved for the event owner", action))
		}
	case model.ActionPublish, model.ActionReject:
		if actor != ActorAdmin {
			return current, Validation(ReasonInvalidField, "stateAction", fmt.Sprintf("%s is reserved for administrators", action))
		}
	default:
		return current, Validation(ReasonInvalidField, "stateAction", fmt.Sprintf("unknown state action %q", action))
	}

	switch action {
	case model.ActionSendToReview:
		switch current {
		case model.EventPending:
			return model.EventPending, nil
		case model.EventPublished, model.EventCanceled:
			return current, notEditable(current)
		}
	case model.ActionCancelReview:
		switch current {
		case model.EventPending, model.EventCanceled:
			return model.EventCanceled, nil
		case model.EventPublished:
			return current, notEditable(current)
		}
	case model.ActionPublish:
		switch current {
		case model.EventPending:
			return model.EventPublished, nil
		case model.EventPublished, model.EventCanceled:
			return current, notEditable(current)
		}
	case model.ActionReject:
		switch current {
		case model.EventPending, model.EventCanceled:
			return model.EventCanceled, nil
		case model.EventPublished:
			return current, notEditable(current)
		}
	}
	return current, Validation(ReasonInvalidField, "state", fmt.Sprintf("unknown event state %q", current))
}

// ApplyOwnerEdit applies an owner's update.  Published events cannot be
// edited by their owner at all.  An empty action leaves the state alone.
func ApplyOwnerEdit(ev model.Event, f EventFields, action model.StateAction, now time.Time) (model.Event, error) {
	if ev.State == model.EventPublished {
		return ev, notEditableID(ev)
	}
	if f.EventDate != nil && !f.EventDate.Equal(ev.EventDate) {
		if err := checkLeadTime(*f.EventDate, now); err != nil {
			return ev, err
		}
	}
	next, err := applyFields(ev, f)
	if err != nil {
		return ev, err
	}
	if action == "" {
		return next, nil
	}
	state, err := NextEventState(next.State, action, ActorOwner)
	if err != nil {
		return ev, withID(err, ev.ID)
	}
	next.State = state
	return next, nil
}

// ApplyAdminEdit applies an administrator's update.  Field edits are allowed
// in every state; a date change on an event that was already published must
// keep the event at least PublishLeadTime after its publication.
func ApplyAdminEdit(ev model.Event, f EventFields, action model.StateAction, now time.Time) (model.Event, error) {
	if f.EventDate != nil && !f.EventDate.Equal(ev.EventDate) && ev.PublishedOn != nil {
		if f.EventDate.Before(ev.PublishedOn.Add(PublishLeadTime)) {
			return ev, Validation(ReasonEventDateException, "eventDate",
				fmt.Sprintf("event date must be at least %s after publication", PublishLeadTime))
		}
	}
	next, err := applyFields(ev, f)
	if err != nil {
		return ev, err
	}
	if action == "" {
		return next, nil
	}
	state, err := NextEventState(next.State, action, ActorAdmin)
	if err != nil {
		return ev, withID(err, ev.ID)
	}
	if state == model.EventPublished && next.State != model.EventPublished {
		if next.EventDate.Before(now.Add(PublishLeadTime)) {
			return ev, Validation(ReasonEventDateException, "eventDate",
				fmt.Sprintf("event date must be at least %s after publication", PublishLeadTime))
		}
		published := now.UTC()
		next.PublishedOn = &published
	}
	next.State = state
	return next, nil
}

func applyFields(ev model.Event, f EventFields) (model.Event, error) {
	if f.Title != nil {
		t := strings.TrimSpace(*f.Title)
		if t == "" {
			return ev, Validation(ReasonInvalidField, "title", "title must not be blank")
		}
		ev.Title = t
	}
	if f.ParticipantLimit != nil {
		if *f.ParticipantLimit < 0 {
			return ev, Validation(ReasonInvalidField, "participantLimit", "participant limit must not be negative")
		}
		ev.ParticipantLimit = *f.ParticipantLimit
	}
	if f.CategoryID != nil {
		ev.CategoryID = *f.CategoryID
	}
	if f.Annotation != nil {
		ev.Annotation = strings.TrimSpace(*f.Annotation)
	}
	if f.Description != nil {
		ev.Description = strings.TrimSpace(*f.Description)
	}
	if f.EventDate != nil {
		ev.EventDate = f.EventDate.UTC()
	}
	if f.Paid != nil {
		ev.Paid = *f.Paid
	}
	if f.RequestModeration != nil {
		ev.RequestModeration = *f.RequestModeration
	}
	if f.Location != nil {
		ev.Location = *f.Location
	}
	return ev, nil
}

func checkLeadTime(date, now time.Time) error {
	if date.Before(now.Add(MinLeadTime)) {
		return Validation(ReasonEventDateTooSoon, "eventDate",
			fmt.Sprintf("event date must be at least %s from now", MinLeadTime))
	}
	return nil
}

func notEditable(state model.EventState) *Error {
	return &Error{
		Kind:    KindConflict,
		Reason:  ReasonEventNotEditable,
		Message: fmt.Sprintf("event in state %s cannot take this transition", state),
	}
}

func notEditableID(ev model.Event) *Error {
	e := notEditable(ev.State)
	e.ID = ev.ID
	return e
}

func withID(err error, id uint64) error {
	if e, ok := err.(*Error); ok && e.ID == 0 && e.Field == "" {
		e.ID = id
	}
	return err
}
